package domain

import "fmt"

// Role is the closed set of user roles. There is no role-change path:
// a user's role is fixed at registration.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDeveloper:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Status is a task's lifecycle state. The only transition is
// pending -> completed; completed is terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role" enum:"admin,developer"`
	PasswordDigest string `json:"-"`
	CreatedAt      string `json:"created_at" format:"date-time"`
}

// Assignee is the minimal identity joined onto a task for display.
// It never carries the password digest.
type Assignee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"due_date" format:"date-time"`
	Status      Status   `json:"status" enum:"pending,completed"`
	AssigneeID  string   `json:"assigned_to"`
	Assignee    Assignee `json:"assignee"`
	CreatedAt   string   `json:"created_at" format:"date-time"`
	UpdatedAt   string   `json:"updated_at" format:"date-time"`
}

// Actor is the authenticated identity performing an operation, derived
// from a verified session token and passed explicitly into every core
// operation.
type Actor struct {
	ID   string
	Role Role
}
