package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/domain"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/engine"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/engine/authz"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/repo"
	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/session"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Logger   *log.Logger
}

// apiError models the required error envelope: every failure is
// {success:false, message}. The fields sit at the top level because
// the error value itself is what gets marshaled onto the wire.
type apiError struct {
	status  int
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Message }

func newAPIError(status int, message string) huma.StatusError {
	return &apiError{status: status, Message: message}
}

// New returns an HTTP handler exposing the task assignment API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			// Schema/request validation errors surface as 400.
			status = http.StatusBadRequest
			if len(errs) > 0 {
				msg = errs[0].Error()
			}
		}
		return newAPIError(status, msg)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Engine.Sessions))
	hcfg := huma.DefaultConfig("Task Assignment API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerAuth(group, cfg.Engine)
	registerUsers(group, cfg.Engine)
	registerTasks(group, cfg.Engine, logger)

	return router, nil
}

// handleError maps core failures onto the error taxonomy. Storage and
// unexpected failures are logged and reported as a generic 500.
func handleError(logger *log.Logger, err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusBadRequest, err.Error())
	}
	var fe authz.ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, err.Error())
	}
	if errors.Is(err, engine.ErrInvalidCredentials) {
		return newAPIError(http.StatusUnauthorized, err.Error())
	}
	if errors.Is(err, session.ErrUnauthenticated) {
		return newAPIError(http.StatusUnauthorized, err.Error())
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "task not found")
	}
	if logger != nil {
		logger.Printf("internal error: %v", err)
	}
	return newAPIError(http.StatusInternalServerError, "internal error")
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerAuth(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/auth/register",
		Summary:       "Register a user",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body RegisterRequest `json:"body"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		u, err := e.Register(ctx, engine.RegisterOptions{
			Name:     input.Body.Name,
			Email:    input.Body.Email,
			Password: input.Body.Password,
			Role:     input.Body.Role,
		})
		if err != nil {
			return nil, handleError(nil, err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: UserResponse{Success: true, Message: "User registered successfully", User: userView(u)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body LoginResponse `json:"body"`
	}, error) {
		token, u, err := e.Authenticate(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, handleError(nil, err)
		}
		return &struct {
			Body LoginResponse `json:"body"`
		}{Body: LoginResponse{Success: true, Token: token, User: userView(u)}}, nil
	})
}

func registerUsers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body UsersResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		users, err := e.ListUsers(ctx, actor)
		if err != nil {
			return nil, handleError(nil, err)
		}
		views := []UserView{}
		for _, u := range users {
			views = append(views, userView(u))
		}
		return &struct {
			Body UsersResponse `json:"body"`
		}{Body: UsersResponse{Success: true, Users: views}}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine, logger *log.Logger) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		due, err := time.Parse(time.RFC3339, input.Body.DueDate)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "due_date must be a valid date")
		}
		t, err := e.CreateTask(ctx, actor, engine.CreateTaskOptions{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			DueDate:     due,
			AssigneeID:  input.Body.AssignedTo,
		})
		if err != nil {
			return nil, handleError(logger, err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: TaskResponse{Success: true, Message: "Task created successfully", Task: t}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TasksResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		tasks, err := e.ListTasks(ctx, actor)
		if err != nil {
			return nil, handleError(logger, err)
		}
		if tasks == nil {
			tasks = []domain.Task{}
		}
		return &struct {
			Body TasksResponse `json:"body"`
		}{Body: TasksResponse{Success: true, Tasks: tasks}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task-status",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update task status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string            `path:"id"`
		Body UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.UpdateStatus(ctx, actor, input.ID, domain.Status(input.Body.Status))
		if err != nil {
			return nil, handleError(logger, err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: TaskResponse{Success: true, Message: "Task updated successfully", Task: t}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete task",
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body SuccessResponse `json:"body"`
	}, error) {
		actor, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteTask(ctx, actor, input.ID); err != nil {
			return nil, handleError(logger, err)
		}
		return &struct {
			Body SuccessResponse `json:"body"`
		}{Body: SuccessResponse{Success: true, Message: "Task deleted successfully"}}, nil
	})
}
