package errors

import "errors"

// Authentication errors indicate credential or session problems.
var (
	// ErrAuthentication indicates bad login credentials. A wrong password and a
	// corrupted keyring are indistinguishable at login, since the only password
	// check is the integrity check on the private-key unwrap.
	ErrAuthentication = errors.New("invalid email or password")

	// ErrAuthenticationRequired indicates the session has expired and the
	// single refresh attempt failed. The guarded operation was not started.
	ErrAuthenticationRequired = errors.New("authentication required: session expired and refresh failed")

	// ErrNotLoggedIn indicates no session exists on this machine.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Cryptographic errors indicate failures during encryption or decryption.
var (
	// ErrDecryptionIntegrity indicates an authentication-tag mismatch on an
	// unwrap or decrypt. It covers wrong key, wrong key version, and
	// corrupted or tampered data; callers must not try to tell these apart
	// without additional context, such as comparing key versions first.
	ErrDecryptionIntegrity = errors.New("decryption failed integrity check")

	// ErrEmptyPassword indicates key derivation was attempted with an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrInvalidKeyLength indicates a symmetric key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid symmetric key length")

	// ErrInvalidSalt indicates the stored salt could not be decoded.
	ErrInvalidSalt = errors.New("invalid salt encoding")
)

// Key custody errors indicate missing or stale key material.
var (
	// ErrKeyNotFound indicates no cached or fetchable workspace key exists
	// for the required version.
	ErrKeyNotFound = errors.New("workspace key not found for required version")

	// ErrPublicKeyNotFound indicates a user's public key could not be fetched
	// from the directory.
	ErrPublicKeyNotFound = errors.New("public key not found")

	// ErrKeyringLocked indicates an operation needed the unlocked private key
	// but the keyring has been closed or was never unlocked.
	ErrKeyringLocked = errors.New("keyring is locked")

	// ErrStaleKeyVersion indicates a secret's ciphertext was produced under an
	// older key version than the workspace's current one.
	ErrStaleKeyVersion = errors.New("secret was encrypted under a stale key version")
)

// Share-protocol errors indicate workspace state machine failures.
var (
	// ErrMigrationAborted is fatal: re-encryption did not complete, no commit
	// was issued, and the caller must restart the migration from scratch.
	ErrMigrationAborted = errors.New("migration aborted: no changes were committed")

	// ErrWorkspaceNotFound indicates the workspace does not exist or the
	// caller is not a member of it.
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// ErrMemberNotFound indicates the target user is not a member of the workspace.
	ErrMemberNotFound = errors.New("user is not a member of this workspace")

	// ErrAlreadyMember indicates the target user already holds a wrapped key
	// at the workspace's current version.
	ErrAlreadyMember = errors.New("user is already a member of this workspace")

	// ErrPersonalWorkspace indicates a member operation was attempted on a
	// personal workspace, which has exactly one member for its lifetime.
	ErrPersonalWorkspace = errors.New("operation not valid on a personal workspace")

	// ErrSelfRemove indicates a user attempted to remove their own membership.
	ErrSelfRemove = errors.New("cannot remove your own access")
)

// Project errors indicate issues with the local project binding.
var (
	// ErrProjectNotBound indicates the current directory is not bound to a project.
	ErrProjectNotBound = errors.New("directory is not bound to a project")

	// ErrProjectAlreadyBound indicates the current directory already has a project binding.
	ErrProjectAlreadyBound = errors.New("directory is already bound to a project")

	// ErrSecretNotFound indicates the requested secret key does not exist in the project.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrUserNotFound indicates no account exists for the given email.
	ErrUserNotFound = errors.New("user not found")
)

// Transport errors classify remote-call failures.
var (
	// ErrTransientNetwork indicates a retryable transport failure. Retrying is
	// the transport layer's business; crypto operations never retry on it.
	ErrTransientNetwork = errors.New("transient network failure")

	// ErrRemoteRejected indicates the remote service rejected the request
	// outright (validation failure, conflict). Not retryable.
	ErrRemoteRejected = errors.New("request rejected by remote service")
)
