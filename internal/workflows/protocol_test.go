package workflows

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/envault/envault/internal/api"
	"github.com/envault/envault/internal/configs"
	"github.com/envault/envault/internal/crypto"
	kerrors "github.com/envault/envault/internal/errors"
	"github.com/envault/envault/internal/keystore"
	"github.com/envault/envault/internal/session"
)

func setupEngine(t *testing.T) (*Engine, *fakeServer) {
	t.Helper()
	tmpDir := t.TempDir()

	origUser := configs.UserEnvaultSettings
	origProject := configs.ProjectEnvaultSettings
	t.Cleanup(func() {
		configs.UserEnvaultSettings = origUser
		configs.ProjectEnvaultSettings = origProject
	})
	configs.UserEnvaultSettings = &configs.UserSettings{
		UserConfigsPath: filepath.Join(tmpDir, "config"),
	}
	configs.ProjectEnvaultSettings = &configs.ProjectSettings{}

	server := newFakeServer()
	client := &fakeClient{s: server}
	sessions := session.NewStore(keystore.NewMemory())
	engine := &Engine{
		API:      client,
		Sessions: sessions,
		Guard:    session.NewGuard(sessions, client),
		Keys:     keystore.NewMemory(),
	}
	return engine, server
}

// setupProject registers an owner and binds a fresh project in their
// personal workspace.
func setupProject(t *testing.T) (*Engine, *fakeServer, *InitProjectResult) {
	t.Helper()
	engine, server := setupEngine(t)
	ctx := context.Background()

	if _, err := engine.Register(ctx, RegisterOptions{
		Email:    "owner@example.com",
		Password: "owner-password",
	}); err != nil {
		t.Fatalf("registering owner: %v", err)
	}

	project, err := engine.InitProject(ctx, InitProjectOptions{
		Name: "demo",
		Path: filepath.Join(t.TempDir(), "demo"),
	})
	if err != nil {
		t.Fatalf("initializing project: %v", err)
	}
	return engine, server, project
}

// createAccount registers an account directly against the fake server and
// returns its id and keypair, for asserting what other members can and
// cannot decrypt.
func createAccount(t *testing.T, server *fakeServer, email string) (string, *[crypto.KeySize]byte, *[crypto.KeySize]byte) {
	t.Helper()
	client := &fakeClient{s: server}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		t.Fatalf("generating salt: %v", err)
	}
	userKey, err := crypto.DeriveUserKey("pw-"+email, salt)
	if err != nil {
		t.Fatalf("deriving user key: %v", err)
	}
	pub, priv, err := crypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("generating keypair: %v", err)
	}
	wrapped, err := crypto.WrapPrivateKey(priv, userKey)
	if err != nil {
		t.Fatalf("wrapping private key: %v", err)
	}
	workspaceKey, err := crypto.NewWorkspaceKey()
	if err != nil {
		t.Fatalf("generating workspace key: %v", err)
	}
	wrappedWorkspaceKey, err := crypto.WrapForMember(workspaceKey, pub)
	if err != nil {
		t.Fatalf("sealing workspace key: %v", err)
	}

	resp, err := client.Register(context.Background(), api.RegisterRequest{
		Email:               email,
		Salt:                salt,
		PublicKey:           pub[:],
		EncryptedPrivateKey: wrapped,
		WrappedWorkspaceKey: wrappedWorkspaceKey,
		Password:            "pw-" + email,
	})
	if err != nil {
		t.Fatalf("registering %s: %v", email, err)
	}
	return resp.AccountID, pub, priv
}

// decryptAs opens a secret the way a member's client would: unseal their
// wrapped workspace key, then open the ciphertext.
func decryptAs(t *testing.T, server *fakeServer, projectID, userID string, pub, priv *[crypto.KeySize]byte, secretKey string) (string, error) {
	t.Helper()
	project := server.projects[projectID]
	ws := server.workspaces[project.workspaceID]

	wrapped, ok := ws.wrapped[userID]
	if !ok {
		return "", kerrors.ErrKeyNotFound
	}
	key, err := crypto.UnwrapForSelf(wrapped, pub, priv)
	if err != nil {
		return "", err
	}
	record, ok := project.secrets[secretKey]
	if !ok {
		return "", kerrors.ErrSecretNotFound
	}
	plaintext, err := crypto.DecryptSecret(record.Ciphertext, key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func TestRegisterLogsIn(t *testing.T) {
	engine, _ := setupEngine(t)
	ctx := context.Background()

	result, err := engine.Register(ctx, RegisterOptions{
		Email:    "owner@example.com",
		Password: "owner-password",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.AccountID == "" || result.PersonalWorkspaceID == "" {
		t.Errorf("incomplete result: %+v", result)
	}

	status, err := engine.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.LoggedIn || status.Email != "owner@example.com" {
		t.Errorf("expected logged-in status, got %+v", status)
	}

	config, err := configs.LoadUserConfig()
	if err != nil {
		t.Fatalf("loading user config: %v", err)
	}
	if config.Account.PersonalWorkspaceID != result.PersonalWorkspaceID {
		t.Errorf("personal workspace not recorded: %+v", config.Account)
	}
}

func TestRegisterSealsPersonalWorkspaceKey(t *testing.T) {
	engine, server, project := setupProject(t)
	ctx := context.Background()

	if _, err := engine.SetSecret(ctx, SetSecretOptions{Key: "DB_PASSWORD", Value: "hunter2"}); err != nil {
		t.Fatalf("setting secret: %v", err)
	}

	user := server.users["owner@example.com"]
	ws := server.workspaces[user.personalWorkspaceID]
	sealed := ws.wrapped[user.id]
	if len(sealed) == 0 {
		t.Fatal("no sealed workspace key stored for the owner")
	}

	// The service holds only the sealed copy. A keypair it could mint for
	// itself does not open it.
	foreignPub, foreignPriv, err := crypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("generating keypair: %v", err)
	}
	if _, err := crypto.UnwrapForSelf(sealed, foreignPub, foreignPriv); !errors.Is(err, kerrors.ErrDecryptionIntegrity) {
		t.Fatalf("unsealing with a foreign keypair: got %v, want ErrDecryptionIntegrity", err)
	}

	// The owner's keypair recovers exactly the key the stored ciphertext
	// was encrypted under.
	raw, err := engine.Keys.Get(privateKeyItem)
	if err != nil {
		t.Fatalf("reading private key: %v", err)
	}
	var priv [crypto.KeySize]byte
	copy(priv[:], raw)
	pub, err := crypto.PublicKeyFor(&priv)
	if err != nil {
		t.Fatalf("deriving public key: %v", err)
	}
	key, err := crypto.UnwrapForSelf(sealed, pub, &priv)
	if err != nil {
		t.Fatalf("unsealing with the owner keypair: %v", err)
	}

	record, ok := server.projects[project.ProjectID].secrets["DB_PASSWORD"]
	if !ok {
		t.Fatal("secret not stored")
	}
	plaintext, err := crypto.DecryptSecret(record.Ciphertext, key)
	if err != nil {
		t.Fatalf("decrypting with the unsealed key: %v", err)
	}
	if string(plaintext) != "hunter2" {
		t.Errorf("plaintext = %q", plaintext)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	engine, _ := setupEngine(t)
	ctx := context.Background()

	if _, err := engine.Register(ctx, RegisterOptions{
		Email:    "owner@example.com",
		Password: "owner-password",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := engine.Login(ctx, LoginOptions{Email: "owner@example.com", Password: "wrong"})
	if !errors.Is(err, kerrors.ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}

func TestSetGetRoundtrip(t *testing.T) {
	engine, server, project := setupProject(t)
	ctx := context.Background()

	if _, err := engine.SetSecret(ctx, SetSecretOptions{Key: "DATABASE_URL", Value: "postgres://localhost/app"}); err != nil {
		t.Fatalf("SetSecret failed: %v", err)
	}

	got, err := engine.GetSecret(ctx, GetSecretOptions{Key: "DATABASE_URL"})
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if got.Value != "postgres://localhost/app" {
		t.Errorf("Value = %q", got.Value)
	}

	// The service must only ever hold ciphertext.
	record := server.projects[project.ProjectID].secrets["DATABASE_URL"]
	if bytes.Contains(record.Ciphertext, []byte("postgres://localhost/app")) {
		t.Error("plaintext visible in stored ciphertext")
	}
}

func TestGetSecretMissing(t *testing.T) {
	engine, _, _ := setupProject(t)

	_, err := engine.GetSecret(context.Background(), GetSecretOptions{Key: "NOPE"})
	if !errors.Is(err, kerrors.ErrSecretNotFound) {
		t.Errorf("expected ErrSecretNotFound, got %v", err)
	}
}

func TestPushIdempotent(t *testing.T) {
	engine, server, project := setupProject(t)
	ctx := context.Background()

	secrets := map[string]string{"A": "1", "B": "2", "C": "3"}
	first, err := engine.Push(ctx, PushOptions{Secrets: secrets})
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if len(first.Pushed) != 3 {
		t.Fatalf("pushed %d secrets, want 3", len(first.Pushed))
	}

	// Rerunning the same push converges on identical state.
	if _, err := engine.Push(ctx, PushOptions{Secrets: secrets}); err != nil {
		t.Fatalf("second Push failed: %v", err)
	}
	if got := len(server.projects[project.ProjectID].secrets); got != 3 {
		t.Errorf("server holds %d secrets after re-push, want 3", got)
	}

	pulled, err := engine.Pull(ctx)
	if err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	for name, want := range secrets {
		if pulled.Secrets[name] != want {
			t.Errorf("pulled %s = %q, want %q", name, pulled.Secrets[name], want)
		}
	}
}

func TestFirstInviteMigratesToShared(t *testing.T) {
	engine, server, project := setupProject(t)
	ctx := context.Background()

	if _, err := engine.Push(ctx, PushOptions{Secrets: map[string]string{
		"API_KEY": "hunter2",
		"DB_URL":  "postgres://prod",
	}}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	inviteeID, inviteePub, inviteePriv := createAccount(t, server, "dev@example.com")

	result, err := engine.Invite(ctx, InviteOptions{Email: "dev@example.com"})
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if !result.Migrated {
		t.Fatal("first invite on a personal workspace must migrate")
	}
	if result.KeyVersion != 2 {
		t.Errorf("KeyVersion = %d, want 2", result.KeyVersion)
	}

	ws := server.workspaces[result.WorkspaceID]
	if ws.kind != "shared" {
		t.Errorf("workspace kind = %q, want shared", ws.kind)
	}
	if server.projects[project.ProjectID].workspaceID != result.WorkspaceID {
		t.Error("project not rebound to the shared workspace")
	}

	// The local binding follows the migration.
	bound, err := boundProject()
	if err != nil {
		t.Fatalf("loading binding: %v", err)
	}
	if bound.WorkspaceID != result.WorkspaceID {
		t.Errorf("binding workspace = %q, want %q", bound.WorkspaceID, result.WorkspaceID)
	}

	// The owner still reads secrets through the engine.
	got, err := engine.GetSecret(ctx, GetSecretOptions{Key: "API_KEY"})
	if err != nil {
		t.Fatalf("owner GetSecret after migration: %v", err)
	}
	if got.Value != "hunter2" {
		t.Errorf("owner read %q", got.Value)
	}

	// The invitee decrypts with their own keypair.
	value, err := decryptAs(t, server, project.ProjectID, inviteeID, inviteePub, inviteePriv, "DB_URL")
	if err != nil {
		t.Fatalf("invitee decrypt failed: %v", err)
	}
	if value != "postgres://prod" {
		t.Errorf("invitee read %q", value)
	}

	// An outsider gets nothing: no sealed copy of their own, and another
	// member's copy does not open for their keypair.
	outsiderID, outsiderPub, outsiderPriv := createAccount(t, server, "stranger@example.com")
	if _, err := decryptAs(t, server, project.ProjectID, outsiderID, outsiderPub, outsiderPriv, "DB_URL"); !errors.Is(err, kerrors.ErrKeyNotFound) {
		t.Errorf("outsider decrypt: expected ErrKeyNotFound, got %v", err)
	}
	if _, err := crypto.UnwrapForSelf(ws.wrapped[inviteeID], outsiderPub, outsiderPriv); !errors.Is(err, kerrors.ErrDecryptionIntegrity) {
		t.Errorf("unsealing another member's copy: expected ErrDecryptionIntegrity, got %v", err)
	}
}

func TestAdditionalInviteDoesNotRotate(t *testing.T) {
	engine, server, project := setupProject(t)
	ctx := context.Background()

	if _, err := engine.Push(ctx, PushOptions{Secrets: map[string]string{"TOKEN": "abc123"}}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	createAccount(t, server, "dev@example.com")
	first, err := engine.Invite(ctx, InviteOptions{Email: "dev@example.com"})
	if err != nil {
		t.Fatalf("first invite: %v", err)
	}

	ciphertextBefore := server.projects[project.ProjectID].secrets["TOKEN"].Ciphertext

	thirdID, thirdPub, thirdPriv := createAccount(t, server, "third@example.com")
	second, err := engine.Invite(ctx, InviteOptions{Email: "third@example.com", Role: "read_only"})
	if err != nil {
		t.Fatalf("second invite: %v", err)
	}

	if second.Migrated {
		t.Error("invite into a shared workspace must not migrate")
	}
	if second.KeyVersion != first.KeyVersion {
		t.Errorf("key version changed %d -> %d on additional invite", first.KeyVersion, second.KeyVersion)
	}

	ciphertextAfter := server.projects[project.ProjectID].secrets["TOKEN"].Ciphertext
	if !bytes.Equal(ciphertextBefore, ciphertextAfter) {
		t.Error("ciphertext changed on additional invite")
	}

	// The new member reads the existing ciphertext at the same version.
	value, err := decryptAs(t, server, project.ProjectID, thirdID, thirdPub, thirdPriv, "TOKEN")
	if err != nil {
		t.Fatalf("new member decrypt failed: %v", err)
	}
	if value != "abc123" {
		t.Errorf("new member read %q", value)
	}
}

func TestInviteExistingMember(t *testing.T) {
	engine, server, _ := setupProject(t)
	ctx := context.Background()

	createAccount(t, server, "dev@example.com")
	if _, err := engine.Invite(ctx, InviteOptions{Email: "dev@example.com"}); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	_, err := engine.Invite(ctx, InviteOptions{Email: "dev@example.com"})
	if !errors.Is(err, kerrors.ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestInviteSelfOnPersonalWorkspace(t *testing.T) {
	engine, server, project := setupProject(t)
	ctx := context.Background()

	_, err := engine.Invite(ctx, InviteOptions{Email: "owner@example.com"})
	if !errors.Is(err, kerrors.ErrAlreadyMember) {
		t.Errorf("expected ErrAlreadyMember, got %v", err)
	}
	if server.migrateCalls != 0 {
		t.Errorf("migrate called %d times, want 0", server.migrateCalls)
	}
	if ws := server.workspaces[project.WorkspaceID]; ws.kind != "personal" {
		t.Errorf("workspace kind = %q, want personal", ws.kind)
	}
}

func TestInviteUnknownUser(t *testing.T) {
	engine, _, _ := setupProject(t)

	_, err := engine.Invite(context.Background(), InviteOptions{Email: "ghost@example.com"})
	if !errors.Is(err, kerrors.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMigrationAbortsOnUndecryptableSecret(t *testing.T) {
	engine, server, project := setupProject(t)
	ctx := context.Background()

	if _, err := engine.Push(ctx, PushOptions{Secrets: map[string]string{"A": "1", "B": "2"}}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	createAccount(t, server, "dev@example.com")

	// Corrupt one stored ciphertext so local re-encryption cannot complete.
	record := server.projects[project.ProjectID].secrets["B"]
	record.Ciphertext[len(record.Ciphertext)-1] ^= 0xFF
	server.projects[project.ProjectID].secrets["B"] = record

	personalWS := server.projects[project.ProjectID].workspaceID

	_, err := engine.Invite(ctx, InviteOptions{Email: "dev@example.com"})
	if !errors.Is(err, kerrors.ErrMigrationAborted) {
		t.Fatalf("expected ErrMigrationAborted, got %v", err)
	}

	// Nothing may have changed: no commit sent, project still personal,
	// binding untouched.
	if server.migrateCalls != 0 {
		t.Errorf("migrate committed %d times after local failure, want 0", server.migrateCalls)
	}
	if server.projects[project.ProjectID].workspaceID != personalWS {
		t.Error("project rebound despite aborted migration")
	}
	bound, err := boundProject()
	if err != nil {
		t.Fatalf("loading binding: %v", err)
	}
	if bound.WorkspaceID != personalWS {
		t.Errorf("local binding changed to %q despite aborted migration", bound.WorkspaceID)
	}
}

func TestMigrationCommitFailureIsFatal(t *testing.T) {
	engine, server, project := setupProject(t)
	ctx := context.Background()

	if _, err := engine.Push(ctx, PushOptions{Secrets: map[string]string{"A": "1"}}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	createAccount(t, server, "dev@example.com")

	personalWS := server.projects[project.ProjectID].workspaceID
	server.failMigrate = true

	_, err := engine.Invite(ctx, InviteOptions{Email: "dev@example.com"})
	if err == nil {
		t.Fatal("expected an error from failed commit")
	}
	if server.migrateCalls != 1 {
		t.Errorf("migrate called %d times, want exactly 1; a failed commit must not be retried", server.migrateCalls)
	}
	if server.projects[project.ProjectID].workspaceID != personalWS {
		t.Error("project rebound despite failed commit")
	}
	bound, loadErr := boundProject()
	if loadErr != nil {
		t.Fatalf("loading binding: %v", loadErr)
	}
	if bound.WorkspaceID != personalWS {
		t.Error("local binding changed despite failed commit")
	}
}

func TestRemoveMemberWithRotation(t *testing.T) {
	engine, server, _ := setupProject(t)
	ctx := context.Background()

	if _, err := engine.Push(ctx, PushOptions{Secrets: map[string]string{"TOKEN": "abc123"}}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	devID, _, _ := createAccount(t, server, "dev@example.com")
	invite, err := engine.Invite(ctx, InviteOptions{Email: "dev@example.com"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	result, err := engine.RemoveMember(ctx, RemoveMemberOptions{Email: "dev@example.com", Rotate: true})
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if !result.Rotated {
		t.Error("expected rotation")
	}
	if result.NewKeyVersion != invite.KeyVersion+1 {
		t.Errorf("NewKeyVersion = %d, want %d", result.NewKeyVersion, invite.KeyVersion+1)
	}

	ws := server.workspaces[invite.WorkspaceID]
	if _, ok := ws.wrapped[devID]; ok {
		t.Error("removed member still holds a sealed key copy")
	}
	if ws.keyVersion != result.NewKeyVersion {
		t.Errorf("workspace at version %d, want %d", ws.keyVersion, result.NewKeyVersion)
	}

	// The owner reads through the rotation transparently; the cached old
	// version fails the check and the new sealed copy is fetched.
	got, err := engine.GetSecret(ctx, GetSecretOptions{Key: "TOKEN"})
	if err != nil {
		t.Fatalf("GetSecret after rotation: %v", err)
	}
	if got.Value != "abc123" {
		t.Errorf("read %q after rotation", got.Value)
	}
	if got.KeyVersion != result.NewKeyVersion {
		t.Errorf("secret at version %d, want %d", got.KeyVersion, result.NewKeyVersion)
	}
}

func TestRemoveMemberWithoutRotation(t *testing.T) {
	engine, server, _ := setupProject(t)
	ctx := context.Background()

	createAccount(t, server, "dev@example.com")
	invite, err := engine.Invite(ctx, InviteOptions{Email: "dev@example.com"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	result, err := engine.RemoveMember(ctx, RemoveMemberOptions{Email: "dev@example.com", Rotate: false})
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if result.Rotated {
		t.Error("rotation ran despite Rotate: false")
	}
	if server.workspaces[invite.WorkspaceID].keyVersion != invite.KeyVersion {
		t.Error("key version changed without rotation")
	}
}

func TestRemoveSelf(t *testing.T) {
	engine, server, _ := setupProject(t)
	ctx := context.Background()

	createAccount(t, server, "dev@example.com")
	if _, err := engine.Invite(ctx, InviteOptions{Email: "dev@example.com"}); err != nil {
		t.Fatalf("invite: %v", err)
	}

	_, err := engine.RemoveMember(ctx, RemoveMemberOptions{Email: "owner@example.com", Rotate: false})
	if !errors.Is(err, kerrors.ErrSelfRemove) {
		t.Errorf("expected ErrSelfRemove, got %v", err)
	}
}

func TestRemoveFromPersonalWorkspace(t *testing.T) {
	engine, _, _ := setupProject(t)

	_, err := engine.RemoveMember(context.Background(), RemoveMemberOptions{Email: "dev@example.com"})
	if !errors.Is(err, kerrors.ErrPersonalWorkspace) {
		t.Errorf("expected ErrPersonalWorkspace, got %v", err)
	}
}

func TestWorkflowsRequireLogin(t *testing.T) {
	engine, _ := setupEngine(t)
	ctx := context.Background()

	if _, err := engine.Pull(ctx); !errors.Is(err, kerrors.ErrNotLoggedIn) {
		t.Errorf("Pull: expected ErrNotLoggedIn, got %v", err)
	}
	if _, err := engine.SetSecret(ctx, SetSecretOptions{Key: "A", Value: "1"}); !errors.Is(err, kerrors.ErrNotLoggedIn) {
		t.Errorf("SetSecret: expected ErrNotLoggedIn, got %v", err)
	}
}

func TestLogoutClearsLocalState(t *testing.T) {
	engine, _, _ := setupProject(t)
	ctx := context.Background()

	if err := engine.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	status, err := engine.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.LoggedIn {
		t.Error("still logged in after logout")
	}
	// The project binding survives logout.
	if status.Project == nil {
		t.Error("project binding lost on logout")
	}
	if _, err := engine.unlockKeyring(); !errors.Is(err, kerrors.ErrNotLoggedIn) {
		t.Errorf("private key still stored after logout: %v", err)
	}
}
