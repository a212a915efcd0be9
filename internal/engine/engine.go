package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/domain"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/engine/authz"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/repo"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/session"
)

// ErrInvalidCredentials is deliberately uniform for unknown emails and
// wrong passwords, so login responses cannot be used to enumerate users.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ValidationError is a client-correctable semantic failure on a named
// field. Shape checks (lengths, formats) run upstream; the engine only
// raises these for rules the transport cannot check.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type Engine struct {
	DB        *sql.DB
	Repo      repo.Repo
	Sessions  session.Manager
	Passwords session.PasswordHasher
	Now       func() time.Time
}

func New(db *sql.DB, sessions session.Manager, passwords session.PasswordHasher) Engine {
	return Engine{
		DB:        db,
		Repo:      repo.Repo{DB: db},
		Sessions:  sessions,
		Passwords: passwords,
		Now:       time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// RegisterOptions are parameters for creating a user.
type RegisterOptions struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register creates a user with a hashed password. Emails are stored
// verbatim and must be unique; the role is fixed for the user's lifetime.
func (e Engine) Register(ctx context.Context, opts RegisterOptions) (domain.User, error) {
	role, err := domain.ParseRole(opts.Role)
	if err != nil {
		return domain.User{}, ValidationError{Field: "role", Reason: "must be admin or developer"}
	}
	digest, err := e.Passwords.Hash(opts.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		ID:             uuid.NewString(),
		Name:           opts.Name,
		Email:          opts.Email,
		Role:           role,
		PasswordDigest: digest,
		CreatedAt:      e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertUser(ctx, u); err != nil {
		if repo.IsUniqueViolation(err) {
			return domain.User{}, ValidationError{Field: "email", Reason: "already registered"}
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate verifies credentials and issues a session token.
func (e Engine) Authenticate(ctx context.Context, email, password string) (string, domain.User, error) {
	u, err := e.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", domain.User{}, ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}
	if !e.Passwords.Verify(password, u.PasswordDigest) {
		return "", domain.User{}, ErrInvalidCredentials
	}
	token, err := e.Sessions.Issue(u.ID, u.Role)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// CreateTaskOptions are parameters for creating a task.
type CreateTaskOptions struct {
	Title       string
	Description string
	DueDate     time.Time
	AssigneeID  string
}

// CreateTask creates a pending task assigned to an existing user.
// Admin only; the assignee reference is verified before the insert.
func (e Engine) CreateTask(ctx context.Context, actor domain.Actor, opts CreateTaskOptions) (domain.Task, error) {
	if err := authz.CanCreateTask(actor); err != nil {
		return domain.Task{}, err
	}
	if _, err := e.Repo.GetUser(ctx, opts.AssigneeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Task{}, ValidationError{Field: "assigned_to", Reason: "assigned user does not exist"}
		}
		return domain.Task{}, err
	}
	now := e.now()
	if opts.DueDate.Before(now) {
		return domain.Task{}, ValidationError{Field: "due_date", Reason: "cannot be in the past"}
	}
	ts := now.UTC().Format(time.RFC3339)
	t := domain.Task{
		ID:          uuid.NewString(),
		Title:       opts.Title,
		Description: opts.Description,
		DueDate:     opts.DueDate.UTC().Format(time.RFC3339),
		Status:      domain.StatusPending,
		AssigneeID:  opts.AssigneeID,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := e.Repo.InsertTask(ctx, t); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return e.Repo.GetTask(ctx, t.ID)
}

// UpdateStatus moves a task to completed. Only the assigned developer
// may do this; admins are denied. Completing an already completed task
// is an idempotent success.
func (e Engine) UpdateStatus(ctx context.Context, actor domain.Actor, taskID string, status domain.Status) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := authz.CanUpdateStatus(actor, t.AssigneeID); err != nil {
		return domain.Task{}, err
	}
	if status != domain.StatusCompleted {
		return domain.Task{}, ValidationError{Field: "status", Reason: "the only permitted transition is to completed"}
	}
	if t.Status == domain.StatusCompleted {
		return t, nil
	}
	if err := e.Repo.UpdateTaskStatus(ctx, t.ID, domain.StatusCompleted, e.now().UTC().Format(time.RFC3339)); err != nil {
		return domain.Task{}, err
	}
	return e.Repo.GetTask(ctx, t.ID)
}

// DeleteTask removes a task permanently. Admin only; the role check
// runs before existence so non-admins learn nothing about task ids.
func (e Engine) DeleteTask(ctx context.Context, actor domain.Actor, taskID string) error {
	if err := authz.CanDeleteTask(actor); err != nil {
		return err
	}
	return e.Repo.DeleteTask(ctx, taskID)
}

// ListTasks returns the actor's visible tasks, newest first. Admins see
// everything; developers see only tasks assigned to them, scoped in the
// store query.
func (e Engine) ListTasks(ctx context.Context, actor domain.Actor) ([]domain.Task, error) {
	return e.Repo.ListTasks(ctx, repo.TaskFilters{AssigneeID: authz.ListScope(actor)})
}

// ListUsers returns all users for admins to pick assignees from.
func (e Engine) ListUsers(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := authz.CanListUsers(actor); err != nil {
		return nil, err
	}
	return e.Repo.ListUsers(ctx)
}
