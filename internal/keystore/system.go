package keystore

import (
	"errors"
	"fmt"

	kerrors "github.com/envault/envault/internal/errors"

	"github.com/99designs/keyring"
)

// System is a Store backed by the OS keychain: macOS Keychain, Windows
// Credential Manager, or the Secret Service on Linux, with an encrypted
// file fallback where none is available.
type System struct {
	ring keyring.Keyring
}

// OpenSystem opens the OS keychain under the given service name.
func OpenSystem(serviceName string, fileDir string) (*System, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		FileDir:         fileDir,
		FilePasswordFunc: keyring.FixedStringPrompt(serviceName),
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyringLocked, err)
	}
	return &System{ring: ring}, nil
}

func (s *System) Put(id string, data []byte) error {
	if err := s.ring.Set(keyring.Item{Key: id, Data: data}); err != nil {
		return fmt.Errorf("storing keychain item %s: %w", id, err)
	}
	return nil
}

func (s *System) Get(id string) ([]byte, error) {
	item, err := s.ring.Get(id)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading keychain item %s: %w", id, err)
	}
	return item.Data, nil
}

func (s *System) Delete(id string) error {
	if err := s.ring.Remove(id); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing keychain item %s: %w", id, err)
	}
	return nil
}
