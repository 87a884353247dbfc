package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	kerrors "github.com/envault/envault/internal/errors"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultTimeout = 30 * time.Second

// TokenSource supplies the current bearer token for authenticated calls.
// It is consulted per request so a mid-process refresh takes effect
// without rebuilding the client.
type TokenSource func() string

// HTTPClient is the JSON-over-HTTP implementation of Client. Transport-level
// retry with backoff is handled by retryablehttp; it retries connection
// failures and 5xx responses only, never 4xx, and crypto operations above
// this layer never retry on their own.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   TokenSource
}

// NewHTTPClient builds a client for the service at baseURL. The token source
// may return "" for unauthenticated calls (register, login).
func NewHTTPClient(baseURL string, token TokenSource) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = defaultTimeout
	rc.Logger = nil

	return &HTTPClient{
		client:  rc.StandardClient(),
		baseURL: baseURL,
		token:   token,
	}
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp, kerrors.ErrAuthentication)
	if err != nil {
		// A rejected credential and an unknown account are reported the same
		// way so a caller cannot probe which emails are registered.
		if errors.Is(err, kerrors.ErrAuthenticationRequired) {
			return nil, kerrors.ErrAuthentication
		}
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var resp Tokens
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", body, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *HTTPClient) LookupUser(ctx context.Context, email string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	path := "/users/lookup?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, kerrors.ErrUserNotFound); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *HTTPClient) PublicKey(ctx context.Context, userID string) ([]byte, error) {
	var resp struct {
		PublicKey []byte `json:"public_key"`
	}
	path := "/users/" + url.PathEscape(userID) + "/public_key"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, kerrors.ErrPublicKeyNotFound); err != nil {
		return nil, err
	}
	return resp.PublicKey, nil
}

func (c *HTTPClient) ListWorkspaces(ctx context.Context) ([]WorkspaceRecord, error) {
	var resp struct {
		Workspaces []WorkspaceRecord `json:"workspaces"`
	}
	if err := c.do(ctx, http.MethodGet, "/workspaces", nil, &resp, nil); err != nil {
		return nil, err
	}
	return resp.Workspaces, nil
}

func (c *HTTPClient) Workspace(ctx context.Context, workspaceID string) (*WorkspaceRecord, error) {
	var resp WorkspaceRecord
	path := "/workspaces/" + url.PathEscape(workspaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, kerrors.ErrWorkspaceNotFound); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListMembers(ctx context.Context, workspaceID string) ([]MemberRecord, error) {
	var resp struct {
		Members []MemberRecord `json:"members"`
	}
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/members"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, kerrors.ErrWorkspaceNotFound); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (c *HTTPClient) AddMember(ctx context.Context, workspaceID string, member MemberPayload) error {
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/members"
	return c.do(ctx, http.MethodPost, path, member, nil, kerrors.ErrWorkspaceNotFound)
}

func (c *HTTPClient) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/members/" + url.PathEscape(userID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, kerrors.ErrMemberNotFound)
}

func (c *HTTPClient) RotateKey(ctx context.Context, workspaceID string, req RotateRequest) error {
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/rotate"
	return c.do(ctx, http.MethodPost, path, req, nil, kerrors.ErrWorkspaceNotFound)
}

func (c *HTTPClient) CreateProject(ctx context.Context, name, workspaceID string) (*ProjectRecord, error) {
	body := map[string]string{"name": name, "workspace_id": workspaceID}
	var resp ProjectRecord
	if err := c.do(ctx, http.MethodPost, "/projects", body, &resp, kerrors.ErrWorkspaceNotFound); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Project(ctx context.Context, projectID string) (*ProjectRecord, error) {
	var resp ProjectRecord
	path := "/projects/" + url.PathEscape(projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, kerrors.ErrProjectNotBound); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListProjects(ctx context.Context, workspaceID string) ([]ProjectRecord, error) {
	var resp struct {
		Projects []ProjectRecord `json:"projects"`
	}
	path := "/workspaces/" + url.PathEscape(workspaceID) + "/projects"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, kerrors.ErrWorkspaceNotFound); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

func (c *HTTPClient) PushSecret(ctx context.Context, projectID string, secret SecretPayload) error {
	path := "/projects/" + url.PathEscape(projectID) + "/secrets"
	return c.do(ctx, http.MethodPost, path, secret, nil, kerrors.ErrProjectNotBound)
}

func (c *HTTPClient) ListSecrets(ctx context.Context, projectID string) ([]SecretRecord, error) {
	var resp struct {
		Secrets []SecretRecord `json:"secrets"`
	}
	path := "/projects/" + url.PathEscape(projectID) + "/secrets"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, kerrors.ErrProjectNotBound); err != nil {
		return nil, err
	}
	return resp.Secrets, nil
}

func (c *HTTPClient) Migrate(ctx context.Context, projectID string, req MigrateRequest) (*MigrateResponse, error) {
	var resp MigrateResponse
	path := "/projects/" + url.PathEscape(projectID) + "/migrate"
	if err := c.do(ctx, http.MethodPost, path, req, &resp, kerrors.ErrProjectNotBound); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs one JSON request/response cycle and classifies failures.
// notFound is the sentinel wrapped for a 404; nil means 404 is reported
// as a generic rejection.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, result any, notFound error) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", kerrors.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, notFound); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// classifyStatus maps HTTP status codes onto the error taxonomy.
func classifyStatus(resp *http.Response, notFound error) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var payload struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", kerrors.ErrAuthenticationRequired, payload.Message)
	case resp.StatusCode == http.StatusNotFound && notFound != nil:
		return fmt.Errorf("%w: %s", notFound, payload.Message)
	case resp.StatusCode >= 500:
		// retryablehttp already exhausted its retries by the time we see this.
		return fmt.Errorf("%w: status %d: %s", kerrors.ErrTransientNetwork, resp.StatusCode, payload.Message)
	default:
		return fmt.Errorf("%w: status %d: %s", kerrors.ErrRemoteRejected, resp.StatusCode, payload.Message)
	}
}
