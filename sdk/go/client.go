package taskdsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal task assignment HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// User represents the API user model.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// Task represents the API task model.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	AssignedTo  string `json:"assigned_to"`
	Assignee    struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"assignee"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
}

type userEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    User   `json:"user"`
}

type loginEnvelope struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

type usersEnvelope struct {
	Success bool   `json:"success"`
	Users   []User `json:"users"`
}

type taskEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Task    Task   `json:"task"`
}

type tasksEnvelope struct {
	Success bool   `json:"success"`
	Tasks   []Task `json:"tasks"`
}

type successEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register creates a user.
func (c *Client) Register(ctx context.Context, name, email, password, role string) (User, error) {
	body := map[string]any{"name": name, "email": email, "password": password, "role": role}
	var resp userEnvelope
	err := c.do(ctx, http.MethodPost, "auth/register", body, &resp)
	return resp.User, err
}

// Login authenticates and stores the bearer token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	body := map[string]any{"email": email, "password": password}
	var resp loginEnvelope
	if err := c.do(ctx, http.MethodPost, "auth/login", body, &resp); err != nil {
		return User{}, err
	}
	c.BearerToken = resp.Token
	return resp.User, nil
}

// ListUsers returns all users (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp usersEnvelope
	err := c.do(ctx, http.MethodGet, "users", nil, &resp)
	return resp.Users, err
}

// CreateTask creates a task assigned to a user (admin only).
func (c *Client) CreateTask(ctx context.Context, title, description, dueDate, assignedTo string) (Task, error) {
	body := map[string]any{
		"title":       title,
		"description": description,
		"due_date":    dueDate,
		"assigned_to": assignedTo,
	}
	var resp taskEnvelope
	err := c.do(ctx, http.MethodPost, "tasks", body, &resp)
	return resp.Task, err
}

// ListTasks returns the caller's visible tasks.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var resp tasksEnvelope
	err := c.do(ctx, http.MethodGet, "tasks", nil, &resp)
	return resp.Tasks, err
}

// CompleteTask marks a task completed (assignee only).
func (c *Client) CompleteTask(ctx context.Context, id string) (Task, error) {
	body := map[string]any{"status": "completed"}
	var resp taskEnvelope
	err := c.do(ctx, http.MethodPut, "tasks/"+url.PathEscape(id), body, &resp)
	return resp.Task, err
}

// DeleteTask removes a task (admin only).
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	var resp successEnvelope
	return c.do(ctx, http.MethodDelete, "tasks/"+url.PathEscape(id), nil, &resp)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (c *Client) do(ctx context.Context, method, p string, body, out any) error {
	base := strings.TrimSuffix(c.BaseURL, "/")
	endpoint := base + "/" + p
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	res, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var envelope successEnvelope
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &envelope) == nil && envelope.Message != "" {
			msg = envelope.Message
		}
		return &APIError{StatusCode: res.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
