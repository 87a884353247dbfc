package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/envault/envault/internal/crypto"
	kerrors "github.com/envault/envault/internal/errors"
)

// WrappedKeyFetcher retrieves the caller's current sealed workspace key and
// its version from the service. It is called when the cache has no usable
// entry for a workspace.
type WrappedKeyFetcher func(ctx context.Context, workspaceID string) (wrapped []byte, keyVersion int, err error)

// cachedKey is one unwrapped workspace key pinned to the version it was
// unwrapped at.
type cachedKey struct {
	version int
	key     []byte
}

// Keyring is the unlocked account context. It holds the plaintext keypair
// for the life of one command invocation and caches unwrapped workspace
// keys by version. It is never persisted.
type Keyring struct {
	mu         sync.Mutex
	publicKey  *[crypto.KeySize]byte
	privateKey *[crypto.KeySize]byte
	cache      map[string]cachedKey
}

// Unlock decrypts the account private key with the password-derived user
// key and returns a keyring ready to unwrap workspace keys.
//
// Returns ErrDecryptionIntegrity if the user key does not open the
// wrapped private key.
func Unlock(encryptedPrivateKey, userKey []byte) (*Keyring, error) {
	privateKey, err := crypto.UnwrapPrivateKey(encryptedPrivateKey, userKey)
	if err != nil {
		return nil, err
	}
	return NewKeyring(privateKey)
}

// NewKeyring builds a keyring from a plaintext private key already in
// hand, such as one read back from the OS keyring. The keyring takes
// ownership of the key.
func NewKeyring(privateKey *[crypto.KeySize]byte) (*Keyring, error) {
	publicKey, err := crypto.PublicKeyFor(privateKey)
	if err != nil {
		crypto.Zero(privateKey[:])
		return nil, err
	}
	return &Keyring{
		publicKey:  publicKey,
		privateKey: privateKey,
		cache:      make(map[string]cachedKey),
	}, nil
}

// PublicKey returns the account public key.
func (k *Keyring) PublicKey() *[crypto.KeySize]byte {
	return k.publicKey
}

// Unwrap opens a workspace key sealed for this account.
//
// Returns ErrDecryptionIntegrity if the sealed box was not addressed to
// this keypair or has been altered.
func (k *Keyring) Unwrap(wrapped []byte) ([]byte, error) {
	return crypto.UnwrapForSelf(wrapped, k.publicKey, k.privateKey)
}

// WorkspaceKey returns the workspace key at exactly reportedVersion, the
// version the caller observed on the record it is about to decrypt or
// encrypt against. A cached key at any other version is discarded and the
// current sealed copy fetched, so a stale key is never used.
//
// Returns ErrStaleKeyVersion if the service's current copy is still older
// than reportedVersion, which means this member has not yet been issued
// the rotated key.
func (k *Keyring) WorkspaceKey(ctx context.Context, workspaceID string, reportedVersion int, fetch WrappedKeyFetcher) ([]byte, error) {
	k.mu.Lock()
	entry, ok := k.cache[workspaceID]
	if ok && entry.version == reportedVersion {
		key := make([]byte, len(entry.key))
		copy(key, entry.key)
		k.mu.Unlock()
		return key, nil
	}
	if ok {
		crypto.Zero(entry.key)
		delete(k.cache, workspaceID)
	}
	k.mu.Unlock()

	wrapped, version, err := fetch(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	key, err := k.Unwrap(wrapped)
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	cached := make([]byte, len(key))
	copy(cached, key)
	k.cache[workspaceID] = cachedKey{version: version, key: cached}
	k.mu.Unlock()

	if version != reportedVersion {
		crypto.Zero(key)
		return nil, fmt.Errorf("%w: workspace %s: fetched key version %d, record carries %d",
			kerrors.ErrStaleKeyVersion, workspaceID, version, reportedVersion)
	}
	return key, nil
}

// CacheKey seeds the cache with a key already in hand, such as a freshly
// generated one during migration. The keyring takes its own copy.
func (k *Keyring) CacheKey(workspaceID string, version int, key []byte) {
	cached := make([]byte, len(key))
	copy(cached, key)

	k.mu.Lock()
	defer k.mu.Unlock()
	if old, ok := k.cache[workspaceID]; ok {
		crypto.Zero(old.key)
	}
	k.cache[workspaceID] = cachedKey{version: version, key: cached}
}

// Invalidate drops any cached key for the workspace. The next WorkspaceKey
// call fetches a fresh sealed copy.
func (k *Keyring) Invalidate(workspaceID string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if entry, ok := k.cache[workspaceID]; ok {
		crypto.Zero(entry.key)
		delete(k.cache, workspaceID)
	}
}

// Close zeroes the private key and every cached workspace key. The keyring
// is unusable afterwards.
func (k *Keyring) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	crypto.Zero(k.privateKey[:])
	for id, entry := range k.cache {
		crypto.Zero(entry.key)
		delete(k.cache, id)
	}
}
