package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/envault/envault/internal/api"
	kerrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/keystore"
)

// sessionItem is the keystore entry holding the serialized session.
const sessionItem = "session"

// Record is the persisted session state. It lives in the OS keyring, never
// in a plain file, because the refresh token in it grants account access.
type Record struct {
	AccountID string     `json:"account_id"`
	Email     string     `json:"email"`
	Tokens    api.Tokens `json:"tokens"`
}

// Store reads and writes the session record in the keystore.
type Store struct {
	ks keystore.Store
}

func NewStore(ks keystore.Store) *Store {
	return &Store{ks: ks}
}

// Save persists the session record, replacing any previous one.
func (s *Store) Save(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.ks.Put(sessionItem, data); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// Load returns the stored session record.
//
// Returns ErrNotLoggedIn if no session has been saved.
func (s *Store) Load() (*Record, error) {
	data, err := s.ks.Get(sessionItem)
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, kerrors.ErrNotLoggedIn
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &rec, nil
}

// Clear removes the session record. Clearing an absent session is not
// an error.
func (s *Store) Clear() error {
	if err := s.ks.Delete(sessionItem); err != nil && !errors.Is(err, keystore.ErrNotFound) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// AccessToken returns the current access token, or "" when no session
// exists. It is shaped to serve as an api.TokenSource.
func (s *Store) AccessToken() string {
	rec, err := s.Load()
	if err != nil {
		return ""
	}
	return rec.Tokens.AccessToken
}
