package workflows

import (
	"context"
	"fmt"

	"github.com/envault/envault/internal/audit"
	kerrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/vault"
)

// RemoveMemberOptions configures removing a member from the bound
// project's workspace.
type RemoveMemberOptions struct {
	// Email identifies the member to remove.
	Email string

	// Rotate re-keys the workspace after removal so the removed member's
	// copy of the key stops opening anything new. Without rotation the
	// removed member keeps a key that still decrypts existing ciphertexts
	// obtained out of band.
	Rotate bool
}

// RemoveMemberResult contains the outcome of a removal.
type RemoveMemberResult struct {
	MemberUserID string
	WorkspaceID  string

	// Rotated reports whether the workspace key was rotated afterwards.
	Rotated bool

	// NewKeyVersion is set when Rotated is true.
	NewKeyVersion int
}

// RemoveMember revokes a member's future key distribution and optionally
// rotates the workspace key.
//
// Returns ErrPersonalWorkspace if the workspace is not shared.
// Returns ErrMemberNotFound if the email is not an active member.
// Returns ErrSelfRemove if the caller targets themselves.
func (e *Engine) RemoveMember(ctx context.Context, opts RemoveMemberOptions) (*RemoveMemberResult, error) {
	auth, err := e.Guard.Require(ctx)
	if err != nil {
		return nil, err
	}
	project, err := boundProject()
	if err != nil {
		return nil, err
	}

	ws, err := e.API.Workspace(ctx, project.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if ws.Kind != vault.KindShared {
		return nil, fmt.Errorf("%w: a personal workspace has no members to remove", kerrors.ErrPersonalWorkspace)
	}

	members, err := e.API.ListMembers(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	var targetID string
	for _, member := range members {
		if member.Email == opts.Email && member.Status == vault.StatusActive {
			targetID = member.UserID
			break
		}
	}
	if targetID == "" {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrMemberNotFound, opts.Email)
	}
	if targetID == auth.AccountID {
		return nil, fmt.Errorf("%w: use a second owner or delete the workspace instead", kerrors.ErrSelfRemove)
	}

	if err := e.API.RemoveMember(ctx, ws.ID, targetID); err != nil {
		return nil, err
	}

	result := &RemoveMemberResult{MemberUserID: targetID, WorkspaceID: ws.ID}

	if opts.Rotate {
		rotation, err := e.RotateKey(ctx)
		if err != nil {
			return nil, fmt.Errorf("member removed but rotation failed: %w", err)
		}
		result.Rotated = true
		result.NewKeyVersion = rotation.NewKeyVersion
	} else {
		e.Logger.WarnfUser("key not rotated; %s retains a key that can open previously fetched ciphertexts", opts.Email)
	}

	entry := audit.ForUser("remove")
	entry.WorkspaceID = ws.ID
	entry.TargetUser = opts.Email
	entry.Rotated = result.Rotated
	if result.Rotated {
		entry.KeyVersion = result.NewKeyVersion
	}
	audit.Log(entry)

	return result, nil
}
