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

// RotateResult contains the outcome of a workspace key rotation.
type RotateResult struct {
	WorkspaceID   string
	NewKeyVersion int

	// ProjectsRotated counts the projects whose secrets were re-encrypted.
	ProjectsRotated int

	// SecretsRotated counts secrets re-encrypted across all projects.
	SecretsRotated int

	// Members counts the remaining members issued the new key.
	Members int
}

// RotateKey generates a new workspace key, re-encrypts every secret of
// every project bound to the workspace, and seals the new key for each
// remaining active member. The local loop is all or nothing; the service
// commits ciphertexts and sealed keys as one transaction. Until a member
// fetches the new version their cached key fails the version check and is
// refetched, never used.
//
// Returns ErrPersonalWorkspace if the workspace is not shared.
func (e *Engine) RotateKey(ctx context.Context) (*RotateResult, error) {
	if _, err := e.Guard.Require(ctx); err != nil {
		return nil, err
	}
	project, err := boundProject()
	if err != nil {
		return nil, err
	}

	keyring, err := e.unlockKeyring()
	if err != nil {
		return nil, err
	}
	defer keyring.Close()

	ws, err := e.API.Workspace(ctx, project.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if ws.Kind != vault.KindShared {
		return nil, fmt.Errorf("%w: rotation applies to shared workspaces", kerrors.ErrPersonalWorkspace)
	}

	currentKey, err := keyring.WorkspaceKey(ctx, ws.ID, ws.KeyVersion, e.wrappedKeyFetcher())
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(currentKey)

	newKey, err := crypto.NewWorkspaceKey()
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(newKey)
	newVersion := ws.KeyVersion + 1

	projects, err := e.API.ListProjects(ctx, ws.ID)
	if err != nil {
		return nil, err
	}

	// Local re-encryption of every bound project. Any failure aborts with
	// no remote mutation.
	rotated := make([]api.ProjectSecrets, 0, len(projects))
	secretCount := 0
	for _, proj := range projects {
		records, err := e.API.ListSecrets(ctx, proj.ID)
		if err != nil {
			return nil, err
		}
		reEncrypted, err := reencryptSecrets(records, currentKey, newKey)
		if err != nil {
			return nil, fmt.Errorf("%w: project %s: %v", kerrors.ErrMigrationAborted, proj.Name, err)
		}
		rotated = append(rotated, api.ProjectSecrets{ProjectID: proj.ID, Secrets: reEncrypted})
		secretCount += len(reEncrypted)
	}

	members, err := e.API.ListMembers(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	wrappedKeys := make([]api.WrappedKeyPayload, 0, len(members))
	for _, member := range members {
		if member.Status != vault.StatusActive {
			continue
		}
		pub, err := memberPublicKey(ctx, e.API, member.UserID)
		if err != nil {
			return nil, err
		}
		wrapped, err := crypto.WrapForMember(newKey, pub)
		if err != nil {
			return nil, fmt.Errorf("%w: sealing key for %s: %v", kerrors.ErrMigrationAborted, member.UserID, err)
		}
		wrappedKeys = append(wrappedKeys, api.WrappedKeyPayload{UserID: member.UserID, WrappedKey: wrapped})
	}

	if err := e.API.RotateKey(ctx, ws.ID, api.RotateRequest{
		NewKeyVersion: newVersion,
		Projects:      rotated,
		WrappedKeys:   wrappedKeys,
	}); err != nil {
		return nil, fmt.Errorf("rotation commit failed, inspect workspace state before retrying: %w", err)
	}

	keyring.CacheKey(ws.ID, newVersion, newKey)

	entry := audit.ForUser("rotate")
	entry.WorkspaceID = ws.ID
	entry.KeyVersion = newVersion
	entry.SecretsCount = secretCount
	audit.Log(entry)

	return &RotateResult{
		WorkspaceID:     ws.ID,
		NewKeyVersion:   newVersion,
		ProjectsRotated: len(rotated),
		SecretsRotated:  secretCount,
		Members:         len(wrappedKeys),
	}, nil
}
