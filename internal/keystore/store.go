package keystore

import (
	"errors"
	"sync"
)

// ErrNotFound indicates no item exists under the requested id.
var ErrNotFound = errors.New("keystore: item not found")

// Store is the capability interface the crypto core uses for secure local
// byte storage. Implementations must not transmit stored bytes anywhere.
type Store interface {
	// Put stores bytes under id, replacing any existing item.
	Put(id string, data []byte) error

	// Get returns the bytes stored under id, or ErrNotFound.
	Get(id string) ([]byte, error)

	// Delete removes the item under id. Deleting a missing item is not an error.
	Delete(id string) error
}

// Memory is an in-process Store used by tests and as a fallback when no OS
// keychain is available. Contents vanish when the process exits.
type Memory struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Put(id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	m.items[id] = cp
	return nil
}

func (m *Memory) Get(id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, id)
	return nil
}
