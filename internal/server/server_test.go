package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/db"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/engine"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/migrate"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/server"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/session"
	taskdsdk "github.com/Ahmad-Bilal009/SiteNative-Task/sdk/go"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn,
		session.Manager{Secret: "test-secret"},
		session.BcryptHasher{Cost: 4},
	)
	handler, err := server.New(server.Config{Engine: eng, Logger: log.New(testWriter{t}, "", 0)})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func apiClient(srv *httptest.Server) *taskdsdk.Client {
	return taskdsdk.New(srv.URL + "/api")
}

func loginAs(t *testing.T, srv *httptest.Server, email, password string) *taskdsdk.Client {
	t.Helper()
	c := apiClient(srv)
	if _, err := c.Login(context.Background(), email, password); err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return c
}

func seedUsers(t *testing.T, srv *httptest.Server) (admin, dev taskdsdk.User) {
	t.Helper()
	c := apiClient(srv)
	ctx := context.Background()
	admin, err := c.Register(ctx, "Alice", "alice@example.com", "hunter22", "admin")
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	dev, err = c.Register(ctx, "Bob", "bob@example.com", "hunter22", "developer")
	if err != nil {
		t.Fatalf("register dev: %v", err)
	}
	return admin, dev
}

func dueSoon() string {
	return time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)
	_, dev := seedUsers(t, srv)
	ctx := context.Background()
	admin := loginAs(t, srv, "alice@example.com", "hunter22")
	bob := loginAs(t, srv, "bob@example.com", "hunter22")

	task, err := admin.CreateTask(ctx, "Ship the release", "Cut the release branch and tag it", dueSoon(), dev.ID)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != "pending" {
		t.Fatalf("expected pending, got %s", task.Status)
	}
	if task.Assignee.Email != "bob@example.com" {
		t.Fatalf("expected joined assignee, got %+v", task.Assignee)
	}

	mine, err := bob.ListTasks(ctx)
	if err != nil || len(mine) != 1 || mine[0].ID != task.ID {
		t.Fatalf("dev list: %v %+v", err, mine)
	}

	done, err := bob.CompleteTask(ctx, task.ID)
	if err != nil || done.Status != "completed" {
		t.Fatalf("complete: %v %s", err, done.Status)
	}
	// completing again converges
	again, err := bob.CompleteTask(ctx, task.ID)
	if err != nil || again.Status != "completed" {
		t.Fatalf("idempotent complete: %v %s", err, again.Status)
	}

	if err := admin.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	empty, err := bob.ListTasks(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("list after delete: %v %+v", err, empty)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	srv := newTestServer(t)
	seedUsers(t, srv)
	ctx := context.Background()

	_, wrongPassword := apiClient(srv).Login(ctx, "bob@example.com", "nope")
	_, unknownEmail := apiClient(srv).Login(ctx, "ghost@example.com", "nope")

	var e1, e2 *taskdsdk.APIError
	if !errors.As(wrongPassword, &e1) || e1.StatusCode != 401 {
		t.Fatalf("wrong password: %v", wrongPassword)
	}
	if !errors.As(unknownEmail, &e2) || e2.StatusCode != 401 {
		t.Fatalf("unknown email: %v", unknownEmail)
	}
	if e1.Message != e2.Message {
		t.Fatalf("login failures differ: %q vs %q", e1.Message, e2.Message)
	}
}

func TestMissingAndInvalidTokens(t *testing.T) {
	srv := newTestServer(t)
	seedUsers(t, srv)
	ctx := context.Background()

	anon := apiClient(srv)
	if _, err := anon.ListTasks(ctx); status(err) != 401 {
		t.Fatalf("no token: %v", err)
	}
	anon.BearerToken = "not-a-token"
	if _, err := anon.ListTasks(ctx); status(err) != 401 {
		t.Fatalf("garbage token: %v", err)
	}
	forged, err := session.Manager{Secret: "other-secret"}.Issue("u-1", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	anon.BearerToken = forged
	if _, err := anon.ListTasks(ctx); status(err) != 401 {
		t.Fatalf("forged token: %v", err)
	}
}

func TestRoleEnforcementOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	_, devUser := seedUsers(t, srv)
	ctx := context.Background()
	admin := loginAs(t, srv, "alice@example.com", "hunter22")
	bob := loginAs(t, srv, "bob@example.com", "hunter22")

	if _, err := bob.CreateTask(ctx, "Sneaky task", "A developer may not create tasks", dueSoon(), devUser.ID); status(err) != 403 {
		t.Fatalf("dev create: %v", err)
	}
	if _, err := bob.ListUsers(ctx); status(err) != 403 {
		t.Fatalf("dev list users: %v", err)
	}

	task, err := admin.CreateTask(ctx, "Real task", "Created by the admin for Bob", dueSoon(), devUser.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := admin.CompleteTask(ctx, task.ID); status(err) != 403 {
		t.Fatalf("admin complete: %v", err)
	}
	if err := bob.DeleteTask(ctx, task.ID); status(err) != 403 {
		t.Fatalf("dev delete: %v", err)
	}
	// denial leaves the task intact and pending
	got, err := bob.ListTasks(ctx)
	if err != nil || len(got) != 1 || got[0].Status != "pending" {
		t.Fatalf("task state after denials: %v %+v", err, got)
	}

	users, err := admin.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("admin list users: %v %+v", err, users)
	}
}

func TestNotFoundAndValidation(t *testing.T) {
	srv := newTestServer(t)
	_, devUser := seedUsers(t, srv)
	ctx := context.Background()
	admin := loginAs(t, srv, "alice@example.com", "hunter22")
	bob := loginAs(t, srv, "bob@example.com", "hunter22")

	if err := admin.DeleteTask(ctx, "missing"); status(err) != 404 {
		t.Fatalf("delete missing: %v", err)
	}
	if _, err := bob.CompleteTask(ctx, "missing"); status(err) != 404 {
		t.Fatalf("complete missing: %v", err)
	}
	// schema violations come back as 400 in the error envelope
	if _, err := apiClient(srv).Register(ctx, "A", "eve@example.com", "hunter22", "developer"); status(err) != 400 {
		t.Fatalf("short name: %v", err)
	}
	if _, err := apiClient(srv).Register(ctx, "Eve", "eve@example.com", "hunter22", "owner"); status(err) != 400 {
		t.Fatalf("bad role: %v", err)
	}
	if _, err := admin.CreateTask(ctx, "ab", "Title below the minimum length", dueSoon(), devUser.ID); status(err) != 400 {
		t.Fatalf("short title: %v", err)
	}
	if _, err := admin.CreateTask(ctx, "Valid title", "A perfectly valid description", dueSoon(), "no-such-user"); status(err) != 400 {
		t.Fatalf("unknown assignee: %v", err)
	}
	stale := time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)
	if _, err := admin.CreateTask(ctx, "Valid title", "A perfectly valid description", stale, devUser.ID); status(err) != 400 {
		t.Fatalf("stale due date: %v", err)
	}
}

// decodeErrorEnvelope asserts a failure response carries the flat
// {success:false, message} shape with nothing nested.
func decodeErrorEnvelope(t *testing.T, resp *http.Response, wantStatus int) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("status %d, want %d", resp.StatusCode, wantStatus)
	}
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if success, ok := payload["success"].(bool); !ok || success {
		t.Fatalf("success field: %v", payload["success"])
	}
	if msg, _ := payload["message"].(string); msg == "" {
		t.Fatalf("missing message: %v", payload)
	}
	if _, ok := payload["body"]; ok {
		t.Fatalf("error payload nested under body: %v", payload)
	}
}

func TestErrorEnvelopeShape(t *testing.T) {
	srv := newTestServer(t)
	seedUsers(t, srv)

	// handler-originated failure
	resp, err := srv.Client().Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email":"bob@example.com","password":"nope"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	decodeErrorEnvelope(t, resp, 401)

	// schema-validation failure
	resp, err = srv.Client().Post(srv.URL+"/api/auth/register", "application/json",
		strings.NewReader(`{"name":"A","email":"eve@example.com","password":"hunter22","role":"developer"}`))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	decodeErrorEnvelope(t, resp, 400)

	// middleware failure has the identical shape
	resp, err = srv.Client().Get(srv.URL + "/api/tasks")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	decodeErrorEnvelope(t, resp, 401)
}

func TestHealthIsOpen(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("health status %d", resp.StatusCode)
	}
}

func TestOpenAPISpecIsOpen(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/openapi.json")
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("openapi status %d", resp.StatusCode)
	}
}

func status(err error) int {
	var apiErr *taskdsdk.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
