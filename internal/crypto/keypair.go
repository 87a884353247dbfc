package crypto

import (
	"crypto/rand"
	"fmt"

	kerrors "github.com/envault/envault/internal/errors"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

// KeySize is the length of X25519 public and private keys.
const KeySize = 32

// GenerateKeypair produces a new X25519 keypair from the system's secure
// random source. Called exactly once per account, at registration.
func GenerateKeypair() (publicKey, privateKey *[KeySize]byte, err error) {
	publicKey, privateKey, err = box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generating keypair: %w", err)
	}
	return publicKey, privateKey, nil
}

// PublicKeyFor recomputes the public key belonging to a private key.
// The published public key is authoritative and never re-derived for
// distribution; this is used locally to open sealed boxes after unlock.
func PublicKeyFor(privateKey *[KeySize]byte) (*[KeySize]byte, error) {
	pub, err := curve25519.X25519(privateKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("deriving public key: %w", err)
	}
	var out [KeySize]byte
	copy(out[:], pub)
	return &out, nil
}

// WrapPrivateKey encrypts the private key under the password-derived user key.
// Used only at registration; the result is stored by the remote service and
// returned at every login.
func WrapPrivateKey(privateKey *[KeySize]byte, userKey []byte) ([]byte, error) {
	return EncryptSecret(privateKey[:], userKey)
}

// UnwrapPrivateKey decrypts the private key with the password-derived user key.
//
// Returns ErrDecryptionIntegrity if the user key is wrong. This is the sole
// way a wrong password is detected; there is no separate verification step.
func UnwrapPrivateKey(wrapped []byte, userKey []byte) (*[KeySize]byte, error) {
	plain, err := DecryptSecret(wrapped, userKey)
	if err != nil {
		return nil, err
	}
	if len(plain) != KeySize {
		Zero(plain)
		return nil, fmt.Errorf("%w: unexpected private key length %d", kerrors.ErrDecryptionIntegrity, len(plain))
	}

	var priv [KeySize]byte
	copy(priv[:], plain)
	Zero(plain)
	return &priv, nil
}
