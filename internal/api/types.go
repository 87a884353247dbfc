package api

import "time"

// Tokens is the ephemeral session credential pair returned by login and refresh.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RegisterRequest creates an account. The salt, public key, wrapped private
// key, and sealed personal-workspace key are all generated locally; the
// service never sees the plaintext private key, the password-derived user
// key, or any plaintext workspace key.
type RegisterRequest struct {
	Email               string `json:"email"`
	Salt                string `json:"password_derived_salt"`
	PublicKey           []byte `json:"public_key"`
	EncryptedPrivateKey []byte `json:"encrypted_private_key"`

	// WrappedWorkspaceKey is the personal workspace key, sealed for the
	// account's own keypair. The service stores it as-is and hands it back
	// on login.
	WrappedWorkspaceKey []byte `json:"wrapped_workspace_key"`

	Password string `json:"password"`
}

type RegisterResponse struct {
	AccountID           string `json:"account_id"`
	PersonalWorkspaceID string `json:"personal_workspace_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries everything a fresh device needs: tokens, the salt to
// re-derive the user key, the wrapped private key, and a wrapped workspace
// key per membership.
type LoginResponse struct {
	Tokens              Tokens            `json:"tokens"`
	AccountID           string            `json:"account_id"`
	Email               string            `json:"email"`
	Salt                string            `json:"salt"`
	EncryptedPrivateKey []byte            `json:"encrypted_private_key"`
	Workspaces          []WorkspaceRecord `json:"workspaces"`
}

// WorkspaceRecord is the service's view of one workspace membership.
// WrappedKey is the caller's copy of the workspace key at KeyVersion,
// sealed for the caller's keypair.
type WorkspaceRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Kind       string `json:"kind"`
	KeyVersion int    `json:"key_version"`
	WrappedKey []byte `json:"wrapped_key,omitempty"`
}

// SecretPayload upserts one secret. Pushing the same key with the same
// key version overwrites; the operation is idempotent per secret.
type SecretPayload struct {
	Key        string `json:"key"`
	Ciphertext []byte `json:"ciphertext"`
	KeyVersion int    `json:"key_version"`
}

// SecretRecord is a stored secret as returned by the service.
type SecretRecord struct {
	Key        string `json:"key"`
	Ciphertext []byte `json:"ciphertext"`
	KeyVersion int    `json:"key_version"`
}

// MemberPayload adds a member to a shared workspace: the current workspace
// key sealed for them, at the version it was sealed at.
type MemberPayload struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	WrappedKey []byte `json:"wrapped_key"`
	KeyVersion int    `json:"key_version"`
}

// MemberRecord is one row of a workspace's membership.
type MemberRecord struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// ReEncryptedSecret is one secret re-encrypted under a new workspace key.
// The new key version rides on the enclosing request; ciphertext and version
// are committed together, atomically, server-side.
type ReEncryptedSecret struct {
	Key        string `json:"key"`
	Ciphertext []byte `json:"ciphertext"`
}

// WrappedKeyPayload is one member's sealed copy of a new workspace key.
type WrappedKeyPayload struct {
	UserID     string `json:"user_id"`
	WrappedKey []byte `json:"wrapped_key"`
	Role       string `json:"role,omitempty"`
}

// MigrateRequest is the single atomic commit of a personal-to-shared
// migration: the service creates the shared workspace, rebinds the project,
// and stores the new ciphertexts and wrapped keys as one transaction.
type MigrateRequest struct {
	NewKeyVersion      int                 `json:"new_key_version"`
	ReEncryptedSecrets []ReEncryptedSecret `json:"re_encrypted_secrets"`
	WrappedKeys        []WrappedKeyPayload `json:"wrapped_keys"`
}

type MigrateResponse struct {
	NewWorkspaceID string `json:"new_workspace_id"`
}

// ProjectSecrets groups one project's re-encrypted secrets inside a rotation.
type ProjectSecrets struct {
	ProjectID string              `json:"project_id"`
	Secrets   []ReEncryptedSecret `json:"secrets"`
}

// RotateRequest commits a workspace key rotation: every bound project's
// secrets re-encrypted under the new version, plus a sealed copy of the new
// key for every remaining member. One transaction server-side.
type RotateRequest struct {
	NewKeyVersion int                 `json:"new_key_version"`
	Projects      []ProjectSecrets    `json:"projects"`
	WrappedKeys   []WrappedKeyPayload `json:"wrapped_keys"`
}

// ProjectRecord is the service's view of one project.
type ProjectRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspace_id"`
}
