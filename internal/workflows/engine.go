package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/envault/envault/internal/api"
	"github.com/envault/envault/internal/crypto"
	kerrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/keystore"
	logger "github.com/envault/envault/internal/logging"
	"github.com/envault/envault/internal/session"
	"github.com/envault/envault/internal/vault"
)

// privateKeyItem is the keystore entry holding the plaintext account
// private key between commands. It lives in the OS keyring only.
const privateKeyItem = "private_key"

// Engine wires the collaborators every workflow needs. Tests swap the API
// for an in-memory fake and the keystore for a memory store.
type Engine struct {
	API      api.Client
	Sessions *session.Store
	Guard    *session.Guard
	Keys     keystore.Store
	Logger   logger.Logger
}

// storePrivateKey persists the plaintext private key in the OS keyring so
// later commands can unlock without the password.
func (e *Engine) storePrivateKey(privateKey *[crypto.KeySize]byte) error {
	if err := e.Keys.Put(privateKeyItem, privateKey[:]); err != nil {
		return fmt.Errorf("storing private key: %w", err)
	}
	return nil
}

// unlockKeyring rebuilds the vault keyring from the stored private key.
//
// Returns ErrNotLoggedIn if no private key is stored.
func (e *Engine) unlockKeyring() (*vault.Keyring, error) {
	data, err := e.Keys.Get(privateKeyItem)
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, kerrors.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	if len(data) != crypto.KeySize {
		return nil, kerrors.ErrInvalidKeyLength
	}

	var privateKey [crypto.KeySize]byte
	copy(privateKey[:], data)
	crypto.Zero(data)

	return vault.NewKeyring(&privateKey)
}

// wrappedKeyFetcher returns the fetch hook the keyring cache uses to pull
// the caller's current sealed workspace key.
func (e *Engine) wrappedKeyFetcher() vault.WrappedKeyFetcher {
	return func(ctx context.Context, workspaceID string) ([]byte, int, error) {
		ws, err := e.API.Workspace(ctx, workspaceID)
		if err != nil {
			return nil, 0, err
		}
		if len(ws.WrappedKey) == 0 {
			return nil, 0, fmt.Errorf("%w: no wrapped key issued for workspace %s", kerrors.ErrKeyNotFound, workspaceID)
		}
		return ws.WrappedKey, ws.KeyVersion, nil
	}
}
