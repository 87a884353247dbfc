package workflows

import (
	"context"
	"fmt"

	"github.com/envault/envault/internal/crypto"
	kerrors "github.com/envault/envault/internal/errors"
)

// GetSecretOptions configures a single-secret fetch.
type GetSecretOptions struct {
	// Key is the secret name to fetch.
	Key string
}

// GetSecretResult contains the decrypted secret.
type GetSecretResult struct {
	Key        string
	Value      string
	KeyVersion int
}

// GetSecret fetches one secret and decrypts it with the workspace key at
// the version the record was encrypted under. A version mismatch between
// the record and the caller's issued key surfaces as ErrStaleKeyVersion
// before any decryption is attempted.
//
// Returns ErrSecretNotFound if the project has no secret with that key.
// Returns ErrDecryptionIntegrity if the ciphertext fails authentication.
func (e *Engine) GetSecret(ctx context.Context, opts GetSecretOptions) (*GetSecretResult, error) {
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

	for _, record := range records {
		if record.Key != opts.Key {
			continue
		}

		key, err := keyring.WorkspaceKey(ctx, project.WorkspaceID, record.KeyVersion, e.wrappedKeyFetcher())
		if err != nil {
			return nil, err
		}
		defer crypto.Zero(key)

		plaintext, err := crypto.DecryptSecret(record.Ciphertext, key)
		if err != nil {
			return nil, err
		}

		return &GetSecretResult{
			Key:        record.Key,
			Value:      string(plaintext),
			KeyVersion: record.KeyVersion,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", kerrors.ErrSecretNotFound, opts.Key)
}
