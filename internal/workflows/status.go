package workflows

import (
	"context"
	"errors"
	"time"

	"github.com/envault/envault/internal/configs"
	kerrors "github.com/envault/envault/internal/errors"
)

// StatusResult describes the current login and project state. Status never
// touches the network.
type StatusResult struct {
	// LoggedIn reports whether a session record exists.
	LoggedIn bool

	// Email and AccountID identify the session, when one exists.
	Email     string
	AccountID string

	// TokenExpiresAt is when the access token lapses; a lapsed token is
	// refreshed automatically on the next remote command.
	TokenExpiresAt time.Time

	// Project is the binding of the enclosing project directory, nil when
	// the working directory is not inside a bound project.
	Project *configs.Project
}

// Status reports the local state: session, account, and project binding.
func (e *Engine) Status(ctx context.Context) (*StatusResult, error) {
	result := &StatusResult{}

	rec, err := e.Sessions.Load()
	switch {
	case err == nil:
		result.LoggedIn = true
		result.Email = rec.Email
		result.AccountID = rec.AccountID
		result.TokenExpiresAt = rec.Tokens.ExpiresAt
	case errors.Is(err, kerrors.ErrNotLoggedIn):
		// Not an error; status just reports it.
	default:
		return nil, err
	}

	if project, err := boundProject(); err == nil {
		result.Project = project
	}

	return result, nil
}
