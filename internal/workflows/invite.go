package workflows

import (
	"context"
	"fmt"

	"github.com/envault/envault/internal/api"
	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/crypto"
	kerrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/vault"
)

// InviteOptions configures adding a member to the bound project's workspace.
type InviteOptions struct {
	// Email is the invitee's account email.
	Email string

	// Role is the role granted. Defaults to member.
	Role string
}

// InviteResult contains the outcome of an invitation.
type InviteResult struct {
	// MemberUserID is the resolved invitee account.
	MemberUserID string

	// Migrated reports whether this invitation was the first share of a
	// personal-workspace project, which migrates it to a shared workspace.
	Migrated bool

	// WorkspaceID is the workspace the member was added to; after a
	// migration this is the new shared workspace.
	WorkspaceID string

	// KeyVersion is the key version the invitee's sealed copy carries.
	KeyVersion int
}

// Invite adds a member to the bound project's workspace. The first invite
// on a personal workspace delegates to MigrateToShared; inviting into an
// already-shared workspace seals the existing current key for the invitee
// without rotating, so no ciphertext changes and other members' caches
// stay valid.
//
// Returns ErrUserNotFound if the invitee has no account.
// Returns ErrAlreadyMember if the invitee is already in the workspace.
func (e *Engine) Invite(ctx context.Context, opts InviteOptions) (*InviteResult, error) {
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

	role := opts.Role
	if role == "" {
		role = vault.RoleMember
	}
	if !vault.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	inviteeID, err := e.API.LookupUser(ctx, opts.Email)
	if err != nil {
		return nil, err
	}
	// Self-invite is rejected before the workspace kind matters. A first
	// invite naming the owner must not trigger a migration.
	if inviteeID == auth.AccountID {
		return nil, fmt.Errorf("%w: cannot invite yourself", kerrors.ErrAlreadyMember)
	}

	if ws.Kind == vault.KindPersonal {
		migration, err := e.MigrateToShared(ctx, MigrateOptions{
			InviteeEmail: opts.Email,
			InviteeRole:  opts.Role,
		})
		if err != nil {
			return nil, err
		}
		return &InviteResult{
			MemberUserID: migration.InviteeUserID,
			Migrated:     true,
			WorkspaceID:  migration.NewWorkspaceID,
			KeyVersion:   migration.NewKeyVersion,
		}, nil
	}

	members, err := e.API.ListMembers(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		if member.UserID == inviteeID && member.Status == vault.StatusActive {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrAlreadyMember, opts.Email)
		}
	}

	inviteePub, err := memberPublicKey(ctx, e.API, inviteeID)
	if err != nil {
		return nil, err
	}

	keyring, err := e.unlockKeyring()
	if err != nil {
		return nil, err
	}
	defer keyring.Close()

	key, err := keyring.WorkspaceKey(ctx, ws.ID, ws.KeyVersion, e.wrappedKeyFetcher())
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(key)

	wrapped, err := crypto.WrapForMember(key, inviteePub)
	if err != nil {
		return nil, err
	}

	if err := e.API.AddMember(ctx, ws.ID, api.MemberPayload{
		UserID:     inviteeID,
		Role:       role,
		WrappedKey: wrapped,
		KeyVersion: ws.KeyVersion,
	}); err != nil {
		return nil, err
	}

	entry := audit.ForUser("invite")
	entry.ProjectID = project.ID
	entry.WorkspaceID = ws.ID
	entry.TargetUser = opts.Email
	entry.Role = role
	entry.KeyVersion = ws.KeyVersion
	audit.Log(entry)

	return &InviteResult{
		MemberUserID: inviteeID,
		Migrated:     false,
		WorkspaceID:  ws.ID,
		KeyVersion:   ws.KeyVersion,
	}, nil
}
