package workflows

import (
	"context"

	"github.com/envault/envault/internal/audit"
	"github.com/envault/envault/internal/crypto"
)

// PullResult contains every secret of the bound project, decrypted.
type PullResult struct {
	// Secrets maps secret names to plaintext values.
	Secrets map[string]string
}

// Pull fetches and decrypts all secrets of the bound project. Each record
// is decrypted with the workspace key at the version it was encrypted
// under, so a pull racing a rotation either sees the old consistent state
// or the new one, never a mix it cannot decrypt.
//
// Returns ErrProjectNotBound if the directory has no project binding.
// Returns ErrStaleKeyVersion if a record requires a key version this
// member has not been issued.
func (e *Engine) Pull(ctx context.Context) (*PullResult, error) {
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

	records, err := e.API.ListSecrets(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	secrets := make(map[string]string, len(records))
	for _, record := range records {
		key, err := keyring.WorkspaceKey(ctx, project.WorkspaceID, record.KeyVersion, e.wrappedKeyFetcher())
		if err != nil {
			return nil, err
		}

		plaintext, err := crypto.DecryptSecret(record.Ciphertext, key)
		crypto.Zero(key)
		if err != nil {
			return nil, err
		}
		secrets[record.Key] = string(plaintext)
	}

	entry := audit.ForUser("pull")
	entry.ProjectID = project.ID
	entry.WorkspaceID = project.WorkspaceID
	entry.SecretsCount = len(secrets)
	audit.Log(entry)

	return &PullResult{Secrets: secrets}, nil
}
