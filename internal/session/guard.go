package session

import (
	"context"
	"fmt"
	"time"

	"github.com/envault/envault/internal/api"
	kerrors "github.com/envault/envault/internal/errors"
)

// expirySkew is how close to expiry a token may be before it is treated
// as expired, so a token does not lapse between the check and its use.
const expirySkew = 30 * time.Second

// Refresher exchanges a refresh token for a fresh token pair. api.Client
// satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*api.Tokens, error)
}

// Authenticated is the proof of a valid session handed to workflows. It
// carries only what a remote call needs.
type Authenticated struct {
	AccountID   string
	Email       string
	AccessToken string
}

// Guard gates every remote workflow behind a session check.
type Guard struct {
	store     *Store
	refresher Refresher

	// now is replaceable in tests.
	now func() time.Time
}

func NewGuard(store *Store, refresher Refresher) *Guard {
	return &Guard{store: store, refresher: refresher, now: time.Now}
}

// Require returns the current authenticated session. If the access token
// has expired it attempts exactly one refresh; on refresh failure it
// leaves the stored session untouched and reports that interactive login
// is needed.
//
// Returns ErrNotLoggedIn if no session exists.
// Returns ErrAuthenticationRequired if the session is expired and could
// not be refreshed.
func (g *Guard) Require(ctx context.Context) (*Authenticated, error) {
	rec, err := g.store.Load()
	if err != nil {
		return nil, err
	}

	if g.now().Add(expirySkew).Before(rec.Tokens.ExpiresAt) {
		return &Authenticated{
			AccountID:   rec.AccountID,
			Email:       rec.Email,
			AccessToken: rec.Tokens.AccessToken,
		}, nil
	}

	tokens, err := g.refresher.Refresh(ctx, rec.Tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: session expired and refresh failed: %v", kerrors.ErrAuthenticationRequired, err)
	}

	rec.Tokens = *tokens
	if err := g.store.Save(*rec); err != nil {
		return nil, err
	}

	return &Authenticated{
		AccountID:   rec.AccountID,
		Email:       rec.Email,
		AccessToken: rec.Tokens.AccessToken,
	}, nil
}
