package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/envault/envault/internal/api"
	"github.com/envault/envault/internal/configs"
	"github.com/envault/envault/internal/crypto"
	kerrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/keystore"
	"github.com/envault/envault/internal/session"
	"github.com/envault/envault/internal/vault"
)

// LoginOptions configures the login workflow.
type LoginOptions struct {
	Email    string
	Password string
}

// LoginResult contains the outcome of a login.
type LoginResult struct {
	// AccountID is the authenticated account.
	AccountID string

	// Email echoes the login email.
	Email string

	// Workspaces lists the account's workspace memberships.
	Workspaces []api.WorkspaceRecord
}

// Login authenticates against the service, derives the user key from the
// returned salt, unwraps the account private key, and persists session
// tokens and the plaintext private key in the OS keyring.
//
// A wrapped private key that fails to open is reported as
// ErrAuthentication, the same as a rejected credential; a caller cannot
// tell a wrong password from a corrupted keyring and that is deliberate.
//
// Returns ErrEmptyPassword if the password is empty.
// Returns ErrAuthentication if the service rejects the credentials or the
// private key cannot be unwrapped.
func (e *Engine) Login(ctx context.Context, opts LoginOptions) (*LoginResult, error) {
	if opts.Password == "" {
		return nil, kerrors.ErrEmptyPassword
	}

	resp, err := e.API.Login(ctx, api.LoginRequest{Email: opts.Email, Password: opts.Password})
	if err != nil {
		return nil, err
	}

	userKey, err := crypto.DeriveUserKey(opts.Password, resp.Salt)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(userKey)

	priv, err := crypto.UnwrapPrivateKey(resp.EncryptedPrivateKey, userKey)
	if err != nil {
		if errors.Is(err, kerrors.ErrDecryptionIntegrity) {
			return nil, kerrors.ErrAuthentication
		}
		return nil, err
	}
	defer crypto.Zero(priv[:])

	if err := e.Sessions.Save(session.Record{
		AccountID: resp.AccountID,
		Email:     resp.Email,
		Tokens:    resp.Tokens,
	}); err != nil {
		return nil, err
	}

	if err := e.storePrivateKey(priv); err != nil {
		return nil, err
	}

	config, err := configs.LoadUserConfig()
	if err != nil {
		return nil, err
	}
	config.Account.Email = resp.Email
	config.Account.AccountID = resp.AccountID
	for _, ws := range resp.Workspaces {
		if ws.Kind == vault.KindPersonal {
			config.Account.PersonalWorkspaceID = ws.ID
		}
	}
	if err := configs.SaveUserConfig(config); err != nil {
		return nil, err
	}

	e.Logger.Infof("logged in as %s", resp.Email)

	return &LoginResult{
		AccountID:  resp.AccountID,
		Email:      resp.Email,
		Workspaces: resp.Workspaces,
	}, nil
}

// Logout revokes the session server-side when possible and always clears
// local tokens and the stored private key. The project binding survives so
// a later login resumes where the user left off.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.API.Logout(ctx); err != nil {
		// Local cleanup proceeds regardless; an unreachable service must
		// not leave credentials on this machine.
		e.Logger.Debugf("remote logout failed: %v", err)
	}

	if err := e.Sessions.Clear(); err != nil {
		return err
	}
	if err := e.Keys.Delete(privateKeyItem); err != nil && !errors.Is(err, keystore.ErrNotFound) {
		return fmt.Errorf("removing private key: %w", err)
	}
	return nil
}
