package repo

import (
	"context"
	"database/sql"

	"github.com/Ahmad-Bilal009/SiteNative-Task/internal/domain"
)

const taskColumns = `t.id,t.title,t.description,t.due_date,t.status,t.assigned_to,t.created_at,t.updated_at,u.name,u.email`

type TaskFilters struct {
	AssigneeID string
}

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tasks(id,title,description,due_date,status,assigned_to,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.Description, t.DueDate, string(t.Status), t.AssigneeID, t.CreatedAt, t.UpdatedAt)
	return err
}

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	var status string
	err := scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &status, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt, &t.Assignee.Name, &t.Assignee.Email)
	if err != nil {
		return t, err
	}
	t.Status = domain.Status(status)
	t.Assignee.ID = t.AssigneeID
	return t, nil
}

// GetTask returns the task joined with its assignee's name and email.
func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks t JOIN users u ON u.id=t.assigned_to WHERE t.id=?`, id)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

// ListTasks returns tasks newest first. The assignee filter is applied
// in the query so scoped callers never see other users' rows.
func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t JOIN users u ON u.id=t.assigned_to`
	var args []any
	if f.AssigneeID != "" {
		query += ` WHERE t.assigned_to=?`
		args = append(args, f.AssigneeID)
	}
	query += ` ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// UpdateTaskStatus writes the new status in a single-row UPDATE; the
// store's per-row atomicity is the only concurrency control needed.
func (r Repo) UpdateTaskStatus(ctx context.Context, id string, status domain.Status, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE tasks SET status=?, updated_at=? WHERE id=?`, string(status), updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteTask(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
