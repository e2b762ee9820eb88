// Package api is the HTTP client for the task service. It covers the
// two auth operations and the five task operations, attaching the
// stored bearer token to every request that has one.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okeefe/taskdeck/internal/model"
)

// APIError is a non-success response from the task service. Message is
// the server's own message when the body carried one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// TokenFunc returns the current bearer token, or "" when logged out.
type TokenFunc func() string

// Client talks to the task service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenFunc
	log        *slog.Logger
}

// New creates a client for the service at baseURL. token supplies the
// bearer token per request so a login during the session is picked up
// without rebuilding the client.
func New(baseURL string, token TokenFunc, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		log:        logger,
	}
}

// TaskDraft is the writable subset of a task. Attachment is a pointer
// so callers can distinguish "send this URL" (including clearing with
// an empty string) from "leave the field out of the request".
type TaskDraft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      model.Status `json:"status"`
	Attachment  *string      `json:"attachment,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type signupRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return resp.Token, nil
}

// Signup registers a new account. The server sends no body worth
// keeping on success.
func (c *Client) Signup(ctx context.Context, email, password string, role model.Role) error {
	return c.do(ctx, http.MethodPost, "/auth/signup", signupRequest{Email: email, Password: password, Role: role}, nil)
}

// ListMine returns the caller's tasks in server order.
func (c *Client) ListMine(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAll returns every task across users. The server rejects this for
// non-admin tokens; the client does not pre-check.
func (c *Client) ListAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/admin", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create creates a task and returns the server's snapshot of it.
func (c *Client) Create(ctx context.Context, draft TaskDraft) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", draft, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Update updates task id with the draft fields and returns the updated
// snapshot. Fields absent from the draft (nil Attachment) are left
// untouched server-side.
func (c *Client) Update(ctx context.Context, id int, draft TaskDraft) (model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), draft, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Delete removes task id.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

// do issues one request. body is JSON-encoded when non-nil; out is
// JSON-decoded from the response when non-nil and the body is present.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.New().String())
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request done", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFrom(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorFrom builds an APIError, pulling the server's message out of a
// {"message": ...} body when there is one.
func (c *Client) errorFrom(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Message
		}
	}

	return apiErr
}
