package authz

import (
	"fmt"

	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/domain"
)

// Action names an operation subject to an authorization decision.
type Action string

const (
	ActionCreateTask   Action = "task.create"
	ActionListTasks    Action = "task.list"
	ActionUpdateStatus Action = "task.update_status"
	ActionDeleteTask   Action = "task.delete"
	ActionListUsers    Action = "user.list"
)

// ForbiddenError indicates the actor is authenticated but not permitted.
type ForbiddenError struct {
	Action Action
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("not permitted to perform %s", e.Action)
}

// CanCreateTask allows admins only.
func CanCreateTask(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return ForbiddenError{Action: ActionCreateTask}
	}
	return nil
}

// CanDeleteTask allows admins only.
func CanDeleteTask(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return ForbiddenError{Action: ActionDeleteTask}
	}
	return nil
}

// CanUpdateStatus allows only the developer the task is assigned to.
// Admins are denied as well: completing a task belongs to its assignee.
func CanUpdateStatus(actor domain.Actor, assigneeID string) error {
	if actor.Role != domain.RoleDeveloper || actor.ID != assigneeID {
		return ForbiddenError{Action: ActionUpdateStatus}
	}
	return nil
}

// CanListUsers allows admins only (the assignee directory).
func CanListUsers(actor domain.Actor) error {
	if actor.Role != domain.RoleAdmin {
		return ForbiddenError{Action: ActionListUsers}
	}
	return nil
}

// ListScope returns the assignee filter for task listing: empty for
// admins (all tasks), the actor's own id for developers. The filter is
// applied in the store query so a developer's request never materializes
// other users' tasks.
func ListScope(actor domain.Actor) string {
	if actor.Role == domain.RoleAdmin {
		return ""
	}
	return actor.ID
}
