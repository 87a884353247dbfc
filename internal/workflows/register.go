package workflows

import (
	"context"
	"fmt"

	"github.com/envault/envault/internal/api"
	"github.com/envault/envault/internal/crypto"
	kerrors "github.com/envault/envault/internal/errors"
)

// RegisterOptions configures the register workflow.
type RegisterOptions struct {
	// Email is the account email.
	Email string

	// Password is the account password. It is used locally to derive the
	// user key and is never persisted.
	Password string
}

// RegisterResult contains the outcome of a register operation.
type RegisterResult struct {
	// AccountID is the new account's identifier.
	AccountID string

	// PersonalWorkspaceID is the workspace created alongside the account.
	PersonalWorkspaceID string

	// Email echoes the registered email.
	Email string
}

// Register creates an account: it derives the user key from the password,
// generates the X25519 keypair and the personal workspace key, wraps the
// private key under the user key and seals the workspace key for the new
// keypair, submits everything except plaintext key material to the service,
// and then logs in so the new account is immediately usable.
//
// Returns ErrEmptyPassword if the password is empty.
// Returns ErrRemoteRejected if the service refuses the registration, for
// example when the email is already taken.
func (e *Engine) Register(ctx context.Context, opts RegisterOptions) (*RegisterResult, error) {
	if opts.Email == "" {
		return nil, fmt.Errorf("email is required")
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	userKey, err := crypto.DeriveUserKey(opts.Password, salt)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(userKey)

	publicKey, privateKey, err := crypto.GenerateKeypair()
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	defer crypto.Zero(privateKey[:])

	wrappedPrivateKey, err := crypto.WrapPrivateKey(privateKey, userKey)
	if err != nil {
		return nil, fmt.Errorf("wrapping private key: %w", err)
	}

	// The personal workspace key is generated here and uploaded only in
	// sealed form. The service never has a plaintext key it could use to
	// read the account's secrets.
	workspaceKey, err := crypto.NewWorkspaceKey()
	if err != nil {
		return nil, fmt.Errorf("generating workspace key: %w", err)
	}
	defer crypto.Zero(workspaceKey)

	wrappedWorkspaceKey, err := crypto.WrapForMember(workspaceKey, publicKey)
	if err != nil {
		return nil, fmt.Errorf("sealing workspace key: %w", err)
	}

	e.Logger.Infof("registering account %s", opts.Email)
	resp, err := e.API.Register(ctx, api.RegisterRequest{
		Email:               opts.Email,
		Salt:                salt,
		PublicKey:           publicKey[:],
		EncryptedPrivateKey: wrappedPrivateKey,
		WrappedWorkspaceKey: wrappedWorkspaceKey,
		Password:            opts.Password,
	})
	if err != nil {
		return nil, err
	}

	// A fresh registration logs in right away so the first command after
	// signup does not prompt again.
	if _, err := e.Login(ctx, LoginOptions{Email: opts.Email, Password: opts.Password}); err != nil {
		return nil, fmt.Errorf("%w: account created but login failed: %v", kerrors.ErrAuthentication, err)
	}

	return &RegisterResult{
		AccountID:           resp.AccountID,
		PersonalWorkspaceID: resp.PersonalWorkspaceID,
		Email:               opts.Email,
	}, nil
}
