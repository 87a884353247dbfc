package workflows

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/envault/envault/internal/api"
	kerrors "github.com/envault/envault/internal/errors"
)

// fakeServer is an in-memory stand-in for the secrets service. It stores
// exactly what the real service would: ciphertext, sealed keys, and public
// keys, plus enough account state to authenticate logins.
type fakeServer struct {
	users      map[string]*fakeUser // by email
	workspaces map[string]*fakeWorkspace
	projects   map[string]*fakeProject
	nextID     int

	// failMigrate makes the next Migrate call fail without committing.
	failMigrate bool

	pushCalls    int
	migrateCalls int
	rotateCalls  int
}

type fakeUser struct {
	id                  string
	email               string
	password            string
	salt                string
	publicKey           []byte
	encryptedPrivateKey []byte
	personalWorkspaceID string
}

type fakeMember struct {
	role   string
	status string
}

type fakeWorkspace struct {
	id         string
	kind       string
	keyVersion int
	wrapped    map[string][]byte // userID -> sealed current key
	members    map[string]*fakeMember
}

type fakeProject struct {
	id          string
	name        string
	workspaceID string
	secrets     map[string]api.SecretRecord
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		users:      make(map[string]*fakeUser),
		workspaces: make(map[string]*fakeWorkspace),
		projects:   make(map[string]*fakeProject),
	}
}

func (s *fakeServer) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeServer) userByID(userID string) *fakeUser {
	for _, u := range s.users {
		if u.id == userID {
			return u
		}
	}
	return nil
}

// fakeClient is one account's view of the fake server, as api.Client.
type fakeClient struct {
	s    *fakeServer
	self string // account id after login
}

func (c *fakeClient) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	if _, ok := c.s.users[req.Email]; ok {
		return nil, fmt.Errorf("%w: email taken", kerrors.ErrRemoteRejected)
	}

	user := &fakeUser{
		id:                  c.s.id("user"),
		email:               req.Email,
		password:            req.Password,
		salt:                req.Salt,
		publicKey:           req.PublicKey,
		encryptedPrivateKey: req.EncryptedPrivateKey,
	}

	// The service stores the sealed workspace key exactly as uploaded; it
	// never holds key material it could open.
	if len(req.WrappedWorkspaceKey) == 0 {
		return nil, fmt.Errorf("%w: missing wrapped workspace key", kerrors.ErrRemoteRejected)
	}

	ws := &fakeWorkspace{
		id:         c.s.id("ws"),
		kind:       "personal",
		keyVersion: 1,
		wrapped:    map[string][]byte{user.id: req.WrappedWorkspaceKey},
		members:    map[string]*fakeMember{user.id: {role: "owner", status: "active"}},
	}
	user.personalWorkspaceID = ws.id
	c.s.users[req.Email] = user
	c.s.workspaces[ws.id] = ws

	return &api.RegisterResponse{AccountID: user.id, PersonalWorkspaceID: ws.id}, nil
}

func (c *fakeClient) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	user, ok := c.s.users[req.Email]
	if !ok || user.password != req.Password {
		return nil, kerrors.ErrAuthentication
	}
	c.self = user.id

	var records []api.WorkspaceRecord
	for _, ws := range c.s.workspaces {
		if wrapped, ok := ws.wrapped[user.id]; ok {
			records = append(records, api.WorkspaceRecord{
				ID:         ws.id,
				Kind:       ws.kind,
				KeyVersion: ws.keyVersion,
				WrappedKey: wrapped,
			})
		}
	}

	return &api.LoginResponse{
		Tokens: api.Tokens{
			AccessToken:  "access-" + user.id,
			RefreshToken: "refresh-" + user.id,
			ExpiresAt:    time.Now().Add(time.Hour),
		},
		AccountID:           user.id,
		Email:               user.email,
		Salt:                user.salt,
		EncryptedPrivateKey: user.encryptedPrivateKey,
		Workspaces:          records,
	}, nil
}

func (c *fakeClient) Refresh(ctx context.Context, refreshToken string) (*api.Tokens, error) {
	return &api.Tokens{
		AccessToken:  "access-refreshed",
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func (c *fakeClient) Logout(ctx context.Context) error {
	c.self = ""
	return nil
}

func (c *fakeClient) LookupUser(ctx context.Context, email string) (string, error) {
	user, ok := c.s.users[email]
	if !ok {
		return "", fmt.Errorf("%w: %s", kerrors.ErrUserNotFound, email)
	}
	return user.id, nil
}

func (c *fakeClient) PublicKey(ctx context.Context, userID string) ([]byte, error) {
	user := c.s.userByID(userID)
	if user == nil {
		return nil, kerrors.ErrPublicKeyNotFound
	}
	return user.publicKey, nil
}

func (c *fakeClient) ListWorkspaces(ctx context.Context) ([]api.WorkspaceRecord, error) {
	var records []api.WorkspaceRecord
	for _, ws := range c.s.workspaces {
		if wrapped, ok := ws.wrapped[c.self]; ok {
			records = append(records, api.WorkspaceRecord{
				ID:         ws.id,
				Kind:       ws.kind,
				KeyVersion: ws.keyVersion,
				WrappedKey: wrapped,
			})
		}
	}
	return records, nil
}

func (c *fakeClient) Workspace(ctx context.Context, workspaceID string) (*api.WorkspaceRecord, error) {
	ws, ok := c.s.workspaces[workspaceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrWorkspaceNotFound, workspaceID)
	}
	return &api.WorkspaceRecord{
		ID:         ws.id,
		Kind:       ws.kind,
		KeyVersion: ws.keyVersion,
		WrappedKey: ws.wrapped[c.self],
	}, nil
}

func (c *fakeClient) ListMembers(ctx context.Context, workspaceID string) ([]api.MemberRecord, error) {
	ws, ok := c.s.workspaces[workspaceID]
	if !ok {
		return nil, kerrors.ErrWorkspaceNotFound
	}
	var records []api.MemberRecord
	for userID, member := range ws.members {
		user := c.s.userByID(userID)
		email := ""
		if user != nil {
			email = user.email
		}
		records = append(records, api.MemberRecord{
			UserID: userID,
			Email:  email,
			Role:   member.role,
			Status: member.status,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UserID < records[j].UserID })
	return records, nil
}

func (c *fakeClient) AddMember(ctx context.Context, workspaceID string, member api.MemberPayload) error {
	ws, ok := c.s.workspaces[workspaceID]
	if !ok {
		return kerrors.ErrWorkspaceNotFound
	}
	if member.KeyVersion != ws.keyVersion {
		return fmt.Errorf("%w: sealed at version %d, workspace at %d", kerrors.ErrRemoteRejected, member.KeyVersion, ws.keyVersion)
	}
	ws.members[member.UserID] = &fakeMember{role: member.Role, status: "active"}
	ws.wrapped[member.UserID] = member.WrappedKey
	return nil
}

func (c *fakeClient) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	ws, ok := c.s.workspaces[workspaceID]
	if !ok {
		return kerrors.ErrWorkspaceNotFound
	}
	member, ok := ws.members[userID]
	if !ok {
		return kerrors.ErrMemberNotFound
	}
	member.status = "revoked"
	delete(ws.wrapped, userID)
	return nil
}

func (c *fakeClient) RotateKey(ctx context.Context, workspaceID string, req api.RotateRequest) error {
	c.s.rotateCalls++
	ws, ok := c.s.workspaces[workspaceID]
	if !ok {
		return kerrors.ErrWorkspaceNotFound
	}

	ws.keyVersion = req.NewKeyVersion
	ws.wrapped = make(map[string][]byte)
	for _, wk := range req.WrappedKeys {
		ws.wrapped[wk.UserID] = wk.WrappedKey
	}
	for _, proj := range req.Projects {
		project, ok := c.s.projects[proj.ProjectID]
		if !ok {
			return kerrors.ErrProjectNotBound
		}
		project.secrets = make(map[string]api.SecretRecord)
		for _, secret := range proj.Secrets {
			project.secrets[secret.Key] = api.SecretRecord{
				Key:        secret.Key,
				Ciphertext: secret.Ciphertext,
				KeyVersion: req.NewKeyVersion,
			}
		}
	}
	return nil
}

func (c *fakeClient) CreateProject(ctx context.Context, name, workspaceID string) (*api.ProjectRecord, error) {
	if _, ok := c.s.workspaces[workspaceID]; !ok {
		return nil, kerrors.ErrWorkspaceNotFound
	}
	project := &fakeProject{
		id:          c.s.id("proj"),
		name:        name,
		workspaceID: workspaceID,
		secrets:     make(map[string]api.SecretRecord),
	}
	c.s.projects[project.id] = project
	return &api.ProjectRecord{ID: project.id, Name: name, WorkspaceID: workspaceID}, nil
}

func (c *fakeClient) Project(ctx context.Context, projectID string) (*api.ProjectRecord, error) {
	project, ok := c.s.projects[projectID]
	if !ok {
		return nil, kerrors.ErrProjectNotBound
	}
	return &api.ProjectRecord{ID: project.id, Name: project.name, WorkspaceID: project.workspaceID}, nil
}

func (c *fakeClient) ListProjects(ctx context.Context, workspaceID string) ([]api.ProjectRecord, error) {
	var records []api.ProjectRecord
	for _, project := range c.s.projects {
		if project.workspaceID == workspaceID {
			records = append(records, api.ProjectRecord{ID: project.id, Name: project.name, WorkspaceID: workspaceID})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (c *fakeClient) PushSecret(ctx context.Context, projectID string, secret api.SecretPayload) error {
	c.s.pushCalls++
	project, ok := c.s.projects[projectID]
	if !ok {
		return kerrors.ErrProjectNotBound
	}
	project.secrets[secret.Key] = api.SecretRecord{
		Key:        secret.Key,
		Ciphertext: secret.Ciphertext,
		KeyVersion: secret.KeyVersion,
	}
	return nil
}

func (c *fakeClient) ListSecrets(ctx context.Context, projectID string) ([]api.SecretRecord, error) {
	project, ok := c.s.projects[projectID]
	if !ok {
		return nil, kerrors.ErrProjectNotBound
	}
	records := make([]api.SecretRecord, 0, len(project.secrets))
	for _, record := range project.secrets {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

func (c *fakeClient) Migrate(ctx context.Context, projectID string, req api.MigrateRequest) (*api.MigrateResponse, error) {
	c.s.migrateCalls++
	if c.s.failMigrate {
		c.s.failMigrate = false
		return nil, fmt.Errorf("%w: simulated outage", kerrors.ErrTransientNetwork)
	}

	project, ok := c.s.projects[projectID]
	if !ok {
		return nil, kerrors.ErrProjectNotBound
	}

	ws := &fakeWorkspace{
		id:         c.s.id("ws"),
		kind:       "shared",
		keyVersion: req.NewKeyVersion,
		wrapped:    make(map[string][]byte),
		members:    make(map[string]*fakeMember),
	}
	for _, wk := range req.WrappedKeys {
		ws.wrapped[wk.UserID] = wk.WrappedKey
		role := wk.Role
		if role == "" {
			role = "member"
		}
		ws.members[wk.UserID] = &fakeMember{role: role, status: "active"}
	}

	project.workspaceID = ws.id
	project.secrets = make(map[string]api.SecretRecord)
	for _, secret := range req.ReEncryptedSecrets {
		project.secrets[secret.Key] = api.SecretRecord{
			Key:        secret.Key,
			Ciphertext: secret.Ciphertext,
			KeyVersion: req.NewKeyVersion,
		}
	}

	c.s.workspaces[ws.id] = ws
	return &api.MigrateResponse{NewWorkspaceID: ws.id}, nil
}

var _ api.Client = (*fakeClient)(nil)
