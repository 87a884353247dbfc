package workflows

import (
	"context"
	"sort"

	"github.com/envault/envault/internal/api"
	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/crypto"
)

// PushOptions configures a bulk secret upload.
type PushOptions struct {
	// Secrets maps secret names to plaintext values.
	Secrets map[string]string
}

// PushResult contains the outcome of a push.
type PushResult struct {
	// Pushed lists the secret names uploaded, sorted.
	Pushed []string

	// KeyVersion is the workspace key version everything was encrypted at.
	KeyVersion int
}

// Push encrypts and upserts a batch of secrets. Each secret is its own
// idempotent upsert; a failure partway through leaves earlier secrets
// stored, and rerunning the same push converges on the same state.
//
// Returns ErrProjectNotBound if the directory has no project binding.
func (e *Engine) Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
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

	// Deterministic order so a partial failure is reproducible.
	names := make([]string, 0, len(opts.Secrets))
	for name := range opts.Secrets {
		names = append(names, name)
	}
	sort.Strings(names)

	pushed := make([]string, 0, len(names))
	for _, name := range names {
		ciphertext, err := crypto.EncryptSecret([]byte(opts.Secrets[name]), key)
		if err != nil {
			return nil, err
		}
		if err := e.API.PushSecret(ctx, project.ID, api.SecretPayload{
			Key:        name,
			Ciphertext: ciphertext,
			KeyVersion: ws.KeyVersion,
		}); err != nil {
			return nil, err
		}
		pushed = append(pushed, name)
		e.Logger.Debugf("pushed %s at key version %d", name, ws.KeyVersion)
	}

	entry := audit.ForUser("push")
	entry.ProjectID = project.ID
	entry.WorkspaceID = ws.ID
	entry.KeyVersion = ws.KeyVersion
	entry.SecretsCount = len(pushed)
	audit.Log(entry)

	return &PushResult{Pushed: pushed, KeyVersion: ws.KeyVersion}, nil
}
