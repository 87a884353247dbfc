package crypto

import (
	"crypto/rand"
	"fmt"

	kerrors "github.com/envault/envault/internal/errors"

	"golang.org/x/crypto/nacl/box"
)

// WrapForMember seals a workspace key for a specific recipient using anonymous
// public-key encryption. The sender needs no keypair of their own, only the
// recipient's public key; only the recipient's private key can unwrap the
// result. This is why inviting a member never requires existing members to
// share anything with the invitee out of band.
func WrapForMember(key []byte, memberPublicKey *[KeySize]byte) ([]byte, error) {
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", kerrors.ErrInvalidKeyLength, SymmetricKeySize, len(key))
	}

	wrapped, err := box.SealAnonymous(nil, key, memberPublicKey, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("sealing workspace key: %w", err)
	}
	return wrapped, nil
}

// UnwrapForSelf opens a sealed workspace key with the holder's own keypair.
//
// Returns ErrDecryptionIntegrity if the box was not sealed for this keypair.
func UnwrapForSelf(wrapped []byte, publicKey, privateKey *[KeySize]byte) ([]byte, error) {
	key, ok := box.OpenAnonymous(nil, wrapped, publicKey, privateKey)
	if !ok {
		return nil, kerrors.ErrDecryptionIntegrity
	}
	if len(key) != SymmetricKeySize {
		Zero(key)
		return nil, fmt.Errorf("%w: unexpected key length %d", kerrors.ErrDecryptionIntegrity, len(key))
	}
	return key, nil
}
