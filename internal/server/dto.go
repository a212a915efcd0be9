package server

import (
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/domain"
)

// Request payloads. Shape rules (lengths, formats) are enforced here by
// the schema layer; the core only checks semantic rules.

type RegisterRequest struct {
	Name     string `json:"name" minLength:"2" maxLength:"100"`
	Email    string `json:"email" format:"email"`
	Password string `json:"password" minLength:"6" maxLength:"72"`
	Role     string `json:"role" enum:"admin,developer"`
}

type LoginRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" minLength:"3" maxLength:"100"`
	Description string `json:"description" minLength:"10" maxLength:"500"`
	DueDate     string `json:"due_date" format:"date-time"`
	AssignedTo  string `json:"assigned_to"`
}

type UpdateTaskRequest struct {
	Status string `json:"status" enum:"pending,completed"`
}

// Response envelopes: every response carries {success, message?, ...}.

type UserView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt string      `json:"created_at" format:"date-time"`
}

func userView(u domain.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

type UserResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	User    UserView `json:"user"`
}

type UsersResponse struct {
	Success bool       `json:"success"`
	Users   []UserView `json:"users"`
}

type LoginResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    UserView `json:"user"`
}

type TaskResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Task    domain.Task `json:"task"`
}

type TasksResponse struct {
	Success bool          `json:"success"`
	Tasks   []domain.Task `json:"tasks"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
