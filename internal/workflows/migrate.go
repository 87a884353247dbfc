package workflows

import (
	"context"
	"fmt"

	"github.com/envault/envault/internal/api"
	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/configs"
	"github.com/envault/envault/internal/crypto"
	kerrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/vault"
)

// MigrateOptions configures a personal-to-shared migration.
type MigrateOptions struct {
	// InviteeEmail is the first member being invited; the invitation is
	// what triggers the migration.
	InviteeEmail string

	// InviteeRole is the role granted to the invitee. Defaults to member.
	InviteeRole string
}

// MigrateResult contains the outcome of a migration.
type MigrateResult struct {
	// NewWorkspaceID is the shared workspace the project now lives in.
	NewWorkspaceID string

	// NewKeyVersion is the version of the fresh workspace key.
	NewKeyVersion int

	// InviteeUserID is the resolved invitee account.
	InviteeUserID string

	// SecretsMigrated counts the secrets re-encrypted under the new key.
	SecretsMigrated int
}

// MigrateToShared moves a project from a personal workspace to a new
// shared workspace so it can be shared with the invitee. The flow is
// all or nothing: every secret is decrypted and re-encrypted under a
// fresh key locally before a single remote mutation happens, and the
// service commits the new workspace, ciphertexts, and sealed keys as one
// transaction. Any local failure aborts with nothing changed.
//
// A failure after the commit request was sent is fatal and never retried;
// a retry would generate a fresh key that no longer matches the sealed
// copies the service may already hold.
//
// Returns ErrMigrationAborted if any secret cannot be re-encrypted.
// Returns ErrUserNotFound if the invitee has no account.
// Returns ErrPersonalWorkspace if the project's workspace is already shared.
func (e *Engine) MigrateToShared(ctx context.Context, opts MigrateOptions) (*MigrateResult, error) {
	auth, err := e.Guard.Require(ctx)
	if err != nil {
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
	if ws.Kind != vault.KindPersonal {
		return nil, fmt.Errorf("%w: workspace %s is already shared", kerrors.ErrPersonalWorkspace, ws.ID)
	}

	role := opts.InviteeRole
	if role == "" {
		role = vault.RoleMember
	}
	if !vault.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	inviteeID, err := e.API.LookupUser(ctx, opts.InviteeEmail)
	if err != nil {
		return nil, err
	}
	inviteePub, err := memberPublicKey(ctx, e.API, inviteeID)
	if err != nil {
		return nil, err
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

	records, err := e.API.ListSecrets(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	// Everything below up to the Migrate call is local. A failure here
	// leaves the service untouched and the project still personal.
	reEncrypted, err := reencryptSecrets(records, currentKey, newKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrMigrationAborted, err)
	}

	ownerWrapped, err := crypto.WrapForMember(newKey, keyring.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("%w: sealing key for owner: %v", kerrors.ErrMigrationAborted, err)
	}
	inviteeWrapped, err := crypto.WrapForMember(newKey, inviteePub)
	if err != nil {
		return nil, fmt.Errorf("%w: sealing key for invitee: %v", kerrors.ErrMigrationAborted, err)
	}

	resp, err := e.API.Migrate(ctx, project.ID, api.MigrateRequest{
		NewKeyVersion:      newVersion,
		ReEncryptedSecrets: reEncrypted,
		WrappedKeys: []api.WrappedKeyPayload{
			{UserID: auth.AccountID, WrappedKey: ownerWrapped, Role: vault.RoleOwner},
			{UserID: inviteeID, WrappedKey: inviteeWrapped, Role: role},
		},
	})
	if err != nil {
		// The commit may or may not have landed. Surface it as fatal; the
		// user must inspect workspace state before anything else runs.
		return nil, fmt.Errorf("migration commit failed, inspect workspace state before retrying: %w", err)
	}

	if err := configs.SaveProjectConfig(&configs.ProjectConfig{
		Project: configs.Project{
			ID:          project.ID,
			Name:        project.Name,
			WorkspaceID: resp.NewWorkspaceID,
		},
	}); err != nil {
		return nil, err
	}
	keyring.Invalidate(ws.ID)
	keyring.CacheKey(resp.NewWorkspaceID, newVersion, newKey)

	entry := audit.ForUser("migrate")
	entry.ProjectID = project.ID
	entry.WorkspaceID = resp.NewWorkspaceID
	entry.TargetUser = opts.InviteeEmail
	entry.Role = role
	entry.KeyVersion = newVersion
	entry.SecretsCount = len(reEncrypted)
	audit.Log(entry)

	return &MigrateResult{
		NewWorkspaceID:  resp.NewWorkspaceID,
		NewKeyVersion:   newVersion,
		InviteeUserID:   inviteeID,
		SecretsMigrated: len(reEncrypted),
	}, nil
}

// reencryptSecrets decrypts every record under oldKey and re-encrypts it
// under newKey. It either converts the complete set or fails without
// partial output.
func reencryptSecrets(records []api.SecretRecord, oldKey, newKey []byte) ([]api.ReEncryptedSecret, error) {
	out := make([]api.ReEncryptedSecret, 0, len(records))
	for _, record := range records {
		plaintext, err := crypto.DecryptSecret(record.Ciphertext, oldKey)
		if err != nil {
			return nil, fmt.Errorf("secret %s: %w", record.Key, err)
		}
		ciphertext, err := crypto.EncryptSecret(plaintext, newKey)
		crypto.Zero(plaintext)
		if err != nil {
			return nil, fmt.Errorf("secret %s: %w", record.Key, err)
		}
		out = append(out, api.ReEncryptedSecret{Key: record.Key, Ciphertext: ciphertext})
	}
	return out, nil
}

// memberPublicKey fetches and validates a member's X25519 public key.
func memberPublicKey(ctx context.Context, client api.Client, userID string) (*[crypto.KeySize]byte, error) {
	raw, err := client.PublicKey(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(raw) != crypto.KeySize {
		return nil, fmt.Errorf("%w: public key for %s is %d bytes", kerrors.ErrInvalidKeyLength, userID, len(raw))
	}
	var pub [crypto.KeySize]byte
	copy(pub[:], raw)
	return &pub, nil
}
