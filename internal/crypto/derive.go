package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	kerrors "github.com/envault/envault/internal/errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations follows the OWASP recommended minimum for PBKDF2-SHA256.
	pbkdf2Iterations = 100000

	// UserKeySize is the derived key length in bytes.
	UserKeySize = 32

	// saltSize is the raw salt length in bytes; salts travel hex-encoded.
	saltSize = 32
)

// GenerateSalt returns a fresh random salt, hex-encoded.
// One salt is generated per account, at registration, and never changes
// afterwards except through an explicit password change.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// DeriveUserKey derives the user's symmetric key from their password and salt
// using PBKDF2-SHA256. The same password and salt always yield the same key.
//
// The password and the derived key must never be logged or persisted; the key
// lives only as long as the caller needs it to wrap or unwrap the private key.
//
// Returns ErrEmptyPassword if the password is empty.
// Returns ErrInvalidSalt if the salt is not valid hex.
func DeriveUserKey(password string, saltHex string) ([]byte, error) {
	if password == "" {
		return nil, kerrors.ErrEmptyPassword
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidSalt, err)
	}

	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, UserKeySize, sha256.New), nil
}

// Zero overwrites key material in place. Callers zero derived keys and
// plaintext workspace keys as soon as they are done with them.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
