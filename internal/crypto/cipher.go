package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	kerrors "github.com/envault/envault/internal/errors"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// SymmetricKeySize is the workspace key length in bytes.
	SymmetricKeySize = 32

	nonceSize = 24
)

// NewWorkspaceKey generates a fresh random symmetric key. Keys are generated
// locally and never reused across workspaces or versions.
func NewWorkspaceKey() ([]byte, error) {
	key := make([]byte, SymmetricKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating workspace key: %w", err)
	}
	return key, nil
}

// EncryptSecret encrypts plaintext under a 32-byte symmetric key using NaCl
// secretbox. A fresh random nonce is generated per call and prepended to the
// ciphertext, so encrypting the same plaintext twice yields different output.
//
// Returns ErrInvalidKeyLength if the key is not exactly 32 bytes.
func EncryptSecret(plaintext []byte, key []byte) ([]byte, error) {
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", kerrors.ErrInvalidKeyLength, SymmetricKeySize, len(key))
	}

	var k [SymmetricKeySize]byte
	copy(k[:], key)

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	return secretbox.Seal(nonce[:], plaintext, &nonce, &k), nil
}

// DecryptSecret decrypts a nonce-prefixed secretbox ciphertext.
//
// Returns ErrDecryptionIntegrity on authentication failure. This single error
// covers wrong key, wrong key version, and corrupted or tampered data.
func DecryptSecret(ciphertext []byte, key []byte) ([]byte, error) {
	if len(key) != SymmetricKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", kerrors.ErrInvalidKeyLength, SymmetricKeySize, len(key))
	}
	if len(ciphertext) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: ciphertext too short", kerrors.ErrDecryptionIntegrity)
	}

	var k [SymmetricKeySize]byte
	copy(k[:], key)

	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, &k)
	if !ok {
		return nil, kerrors.ErrDecryptionIntegrity
	}
	return plaintext, nil
}
