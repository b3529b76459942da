package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/marcus/vcpull/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Client is an HTTP client for the project API.
//
// A Client is never mutated after construction. WithTeam returns a scoped
// copy, so the same value can be shared by concurrent callers.
type Client struct {
	baseURL string
	token   string
	teamID  string
	http    *http.Client
}

// New creates a new API client.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// WithTeam returns a copy of the client scoped to teamID.
// An empty teamID returns a client scoped to the personal account.
func (c *Client) WithTeam(teamID string) *Client {
	cp := *c
	cp.teamID = teamID
	return &cp
}

// --- Response types ---

// UserResponse is the body of GET /v2/user.
type UserResponse struct {
	User User `json:"user"`
}

// User is the authenticated account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
}

// Team is a team the user belongs to.
type Team struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type teamsResponse struct {
	Teams []Team `json:"teams"`
}

// EnvPullResponse is the body of GET /v1/env/pull/{projectId}/{target}.
type EnvPullResponse struct {
	Env map[string]string `json:"env"`
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck hits the /healthz endpoint to verify server reachability.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doNoAuth(ctx, "GET", "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Account methods ---

// GetUser returns the authenticated user.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	var resp UserResponse
	if err := c.do(ctx, "GET", "/v2/user", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ListTeams lists the teams the authenticated user belongs to.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	var resp teamsResponse
	if err := c.do(ctx, "GET", "/v2/teams", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

// GetTeam fetches a single team by ID.
func (c *Client) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	var resp Team
	if err := c.do(ctx, "GET", "/v2/teams/"+url.PathEscape(teamID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOrganization resolves an organization ID to a team or the personal account.
func (c *Client) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	if models.OrgKindFromID(orgID) == models.OrgTeam {
		team, err := c.GetTeam(ctx, orgID)
		if err != nil {
			return nil, err
		}
		return &models.Organization{ID: team.ID, Slug: team.Slug, Name: team.Name, Kind: models.OrgTeam}, nil
	}

	user, err := c.GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.ID != orgID {
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, orgID)
	}
	return &models.Organization{ID: user.ID, Slug: user.Username, Name: user.Name, Kind: models.OrgPersonal}, nil
}

// --- Project methods ---

// GetProject fetches a project by ID or name within the client's scope.
func (c *Client) GetProject(ctx context.Context, idOrName string) (*models.Project, error) {
	var resp models.Project
	if err := c.do(ctx, "GET", "/v9/projects/"+url.PathEscape(idOrName), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateProject creates a new project within the client's scope.
func (c *Client) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	body := map[string]string{"name": name}
	var resp models.Project
	if err := c.do(ctx, "POST", "/v9/projects", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Environment methods ---

// PullEnv fetches the decrypted environment variables of a project for one target.
func (c *Client) PullEnv(ctx context.Context, projectID string, target models.Target) (map[string]string, error) {
	var resp EnvPullResponse
	path := fmt.Sprintf("/v1/env/pull/%s/%s", url.PathEscape(projectID), url.PathEscape(string(target)))
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Env == nil {
		resp.Env = map[string]string{}
	}
	return resp.Env, nil
}

// --- HTTP helpers ---

// APIError is the standard error body from the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// errorEnvelope accepts both {"code":..} and {"error":{"code":..}} bodies.
type errorEnvelope struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Nested  *APIError `json:"error"`
}

// do executes an authenticated HTTP request.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	return c.doRequest(ctx, method, path, body, result, true)
}

// doNoAuth executes an unauthenticated HTTP request.
func (c *Client) doNoAuth(ctx context.Context, method, path string, body, result any) error {
	return c.doRequest(ctx, method, path, body, result, false)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.scoped(path), bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	slog.Debug("api: request", "method", method, "path", path, "team", c.teamID, "status", resp.StatusCode, "took", time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// scoped appends the teamId query parameter when the client is team scoped.
func (c *Client) scoped(path string) string {
	if c.teamID == "" {
		return path
	}
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	q := u.Query()
	q.Set("teamId", c.teamID)
	u.RawQuery = q.Encode()
	return u.String()
}

func decodeError(status int, respBody []byte) error {
	var env errorEnvelope
	apiErr := &APIError{Status: status}
	if json.Unmarshal(respBody, &env) == nil {
		if env.Nested != nil && env.Nested.Code != "" {
			apiErr.Code, apiErr.Message = env.Nested.Code, env.Nested.Message
		} else if env.Code != "" {
			apiErr.Code, apiErr.Message = env.Code, env.Message
		}
	}

	var sentinel error
	switch status {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusNotFound:
		sentinel = ErrNotFound
	}

	if apiErr.Code == "" {
		if sentinel != nil {
			return sentinel
		}
		return fmt.Errorf("HTTP %d: %s", status, string(respBody))
	}
	if sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, apiErr.Message)
	}
	return apiErr
}

// ExitCode maps a client error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
