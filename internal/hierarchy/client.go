// Package hierarchy provides the typed client for the WhereCode Control
// Center project → task → command API.
package hierarchy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	ccerrors "github.com/wherecode/command-console/internal/errors"
)

// TokenHeader is the static credential header attached to every call.
const TokenHeader = "X-WhereCode-Token"

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the Control Center REST API. It holds no mutable session
// state; every call is independent.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	logger     zerolog.Logger
}

// NewClient creates a Control Center API client. The timeout bounds every
// individual call.
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "hierarchy").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// BaseURL returns the configured control-center base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Healthz probes the control center itself.
func (c *Client) Healthz(ctx context.Context) (HealthPayload, error) {
	var out HealthPayload
	err := c.do(ctx, http.MethodGet, "/healthz", nil, &out)
	return out, err
}

// ActionLayerHealth probes the action layer through the control center.
func (c *Client) ActionLayerHealth(ctx context.Context) (ActionLayerHealth, error) {
	var out ActionLayerHealth
	err := c.do(ctx, http.MethodGet, "/action-layer/health", nil, &out)
	return out, err
}

// ExecuteAction runs a command synchronously on the action layer, bypassing
// the task queue.
func (c *Client) ExecuteAction(ctx context.Context, input ExecuteActionInput) (ExecuteActionResult, error) {
	var out ExecuteActionResult
	err := c.do(ctx, http.MethodPost, "/action-layer/execute", input, &out)
	return out, err
}

// ListProjects returns all projects in server order.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	err := c.do(ctx, http.MethodGet, "/projects", nil, &out)
	return out, err
}

// CreateProject creates a project. The server rejects empty names with a
// RequestError.
func (c *Client) CreateProject(ctx context.Context, input CreateProjectInput) (Project, error) {
	var out Project
	err := c.do(ctx, http.MethodPost, "/projects", input, &out)
	return out, err
}

// ListTasks returns the tasks of a project.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]Task, error) {
	var out []Task
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/tasks", nil, &out)
	return out, err
}

// CreateTask creates a task under a project.
func (c *Client) CreateTask(ctx context.Context, projectID string, input CreateTaskInput) (Task, error) {
	var out Task
	err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/tasks", input, &out)
	return out, err
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, taskID string) (Task, error) {
	var out Task
	err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil, &out)
	return out, err
}

// SubmitCommand submits a command for asynchronous execution and returns the
// acceptance envelope. The full Command resource must be polled afterwards.
func (c *Client) SubmitCommand(ctx context.Context, taskID string, input CreateCommandInput) (CommandAccepted, error) {
	var out CommandAccepted
	err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/commands", input, &out)
	return out, err
}

// ListCommands returns the commands of a task sorted by sequence. Server
// order is not trusted.
func (c *Client) ListCommands(ctx context.Context, taskID string) ([]Command, error) {
	var out []Command
	if err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID)+"/commands", nil, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// GetCommand fetches a single command snapshot.
func (c *Client) GetCommand(ctx context.Context, commandID string) (Command, error) {
	var out Command
	err := c.do(ctx, http.MethodGet, "/commands/"+url.PathEscape(commandID), nil, &out)
	return out, err
}

// ApproveCommand approves a command that is waiting for approval. The server
// answers 409 when the command is not in that state; callers must not use
// this to probe command state.
func (c *Client) ApproveCommand(ctx context.Context, commandID, approvedBy string) (Command, error) {
	var out Command
	input := ApproveCommandInput{ApprovedBy: approvedBy}
	err := c.do(ctx, http.MethodPost, "/commands/"+url.PathEscape(commandID)+"/approve", input, &out)
	return out, err
}

// GetProjectSnapshot fetches a project with its full task and command trees.
func (c *Client) GetProjectSnapshot(ctx context.Context, projectID string) (ProjectDetail, error) {
	var out ProjectDetail
	err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/snapshot", nil, &out)
	return out, err
}

// SnapshotAll fetches every listed project's snapshot concurrently and
// returns them in project-list order. One failed fetch fails the whole read.
func (c *Client) SnapshotAll(ctx context.Context) ([]ProjectDetail, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]ProjectDetail, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range projects {
		i, p := i, p
		g.Go(func() error {
			detail, err := c.GetProjectSnapshot(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", p.ID, err)
			}
			details[i] = detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// do executes one authenticated API call and decodes the answer into out.
// Failures normalize to exactly one of NetworkError, RequestError, or
// DecodeError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TokenHeader, c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ccerrors.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.requestError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &ccerrors.DecodeError{Op: method + " " + path, Err: err}
		}
	}
	return nil
}

// requestError extracts the optional {"detail": ...} convention from an
// error body. An unparsable body still yields the status alone.
func (c *Client) requestError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(raw, &payload)

	re := &ccerrors.RequestError{Status: resp.StatusCode, Detail: payload.Detail}
	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("detail", payload.Detail).
		Msg("control center rejected request")
	return re
}
