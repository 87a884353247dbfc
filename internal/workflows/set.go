package workflows

import (
	"context"

	"github.com/envault/envault/internal/api"
	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/crypto"
)

// SetSecretOptions configures a single-secret upsert.
type SetSecretOptions struct {
	// Key is the secret name, e.g. DATABASE_URL.
	Key string

	// Value is the plaintext. It is encrypted locally before anything
	// leaves the process.
	Value string
}

// SetSecretResult contains the outcome of a set operation.
type SetSecretResult struct {
	Key        string
	KeyVersion int
}

// SetSecret encrypts one secret under the project's current workspace key
// and upserts it. The upsert is idempotent at (project, key, key version),
// so repeating it after a partial failure is safe.
//
// Returns ErrProjectNotBound if the directory has no project binding.
// Returns ErrStaleKeyVersion if this member has not been issued the
// workspace's current key.
func (e *Engine) SetSecret(ctx context.Context, opts SetSecretOptions) (*SetSecretResult, error) {
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

	key, err := keyring.WorkspaceKey(ctx, ws.ID, ws.KeyVersion, e.wrappedKeyFetcher())
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(key)

	ciphertext, err := crypto.EncryptSecret([]byte(opts.Value), key)
	if err != nil {
		return nil, err
	}

	if err := e.API.PushSecret(ctx, project.ID, api.SecretPayload{
		Key:        opts.Key,
		Ciphertext: ciphertext,
		KeyVersion: ws.KeyVersion,
	}); err != nil {
		return nil, err
	}

	entry := audit.ForUser("set")
	entry.ProjectID = project.ID
	entry.WorkspaceID = ws.ID
	entry.SecretKey = opts.Key
	entry.KeyVersion = ws.KeyVersion
	audit.Log(entry)

	return &SetSecretResult{Key: opts.Key, KeyVersion: ws.KeyVersion}, nil
}
