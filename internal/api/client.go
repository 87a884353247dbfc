package api

import "context"

// Client is the remote-service collaborator consumed by the crypto core.
// All remote reads and writes go through it; implementations own transport,
// framing and retry. Every call honors context cancellation and deadlines.
//
// The service is authoritative for encrypted blobs and membership. It only
// ever sees ciphertext, wrapped keys, and public keys.
type Client interface {
	// Register creates an account and its personal workspace.
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)

	// Login authenticates and returns session tokens plus the material needed
	// to unlock the keyring on this device.
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)

	// Refresh exchanges a refresh token for a new token pair.
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)

	// Logout invalidates the current session server-side.
	Logout(ctx context.Context) error

	// LookupUser resolves an email to an account id.
	LookupUser(ctx context.Context, email string) (string, error)

	// PublicKey fetches a user's published public key from the directory.
	PublicKey(ctx context.Context, userID string) ([]byte, error)

	// ListWorkspaces lists the caller's workspace memberships, each with the
	// caller's wrapped key at the current version.
	ListWorkspaces(ctx context.Context) ([]WorkspaceRecord, error)

	// Workspace fetches one workspace, including the caller's wrapped key at
	// the workspace's current key version.
	Workspace(ctx context.Context, workspaceID string) (*WorkspaceRecord, error)

	// ListMembers lists a workspace's membership.
	ListMembers(ctx context.Context, workspaceID string) ([]MemberRecord, error)

	// AddMember grants a user membership with a sealed copy of the current key.
	AddMember(ctx context.Context, workspaceID string, member MemberPayload) error

	// RemoveMember revokes a member's future key distribution. It does not by
	// itself rotate the workspace key.
	RemoveMember(ctx context.Context, workspaceID, userID string) error

	// RotateKey commits a key rotation as one transaction.
	RotateKey(ctx context.Context, workspaceID string, req RotateRequest) error

	// CreateProject creates a project bound to the given workspace.
	CreateProject(ctx context.Context, name, workspaceID string) (*ProjectRecord, error)

	// Project fetches one project.
	Project(ctx context.Context, projectID string) (*ProjectRecord, error)

	// ListProjects lists the projects bound to a workspace.
	ListProjects(ctx context.Context, workspaceID string) ([]ProjectRecord, error)

	// PushSecret upserts one secret. Idempotent per (project, key, key version).
	PushSecret(ctx context.Context, projectID string, secret SecretPayload) error

	// ListSecrets returns all of a project's stored secrets.
	ListSecrets(ctx context.Context, projectID string) ([]SecretRecord, error)

	// Migrate commits a personal-to-shared migration as one transaction.
	Migrate(ctx context.Context, projectID string, req MigrateRequest) (*MigrateResponse, error)
}
