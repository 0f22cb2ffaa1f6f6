package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

const taskColumns = "id, user_id, university_id, title, description, category, completed, due_date, created_at"

func scanTask(scanner interface{ Scan(...any) error }) (core.Task, error) {
	var t core.Task
	var due sql.NullTime
	err := scanner.Scan(&t.ID, &t.UserID, &t.UniversityID, &t.Title, &t.Description,
		&t.Category, &t.Completed, &due, &t.CreatedAt)
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, err
}

// CreateTask implements store.Tasks. A missing id is generated and written
// back to the passed record.
func (s *Store) CreateTask(ctx context.Context, task *core.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	var due any
	if task.DueDate != nil {
		due = *task.DueDate
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, university_id, title, description, category, completed, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.UserID, task.UniversityID, task.Title, task.Description,
		task.Category, task.Completed, due, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask implements store.Tasks.
func (s *Store) GetTask(ctx context.Context, userID, taskID string) (*core.Task, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// ListTasks implements store.Tasks.
func (s *Store) ListTasks(ctx context.Context, userID string) ([]core.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []core.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTask implements store.Tasks.
func (s *Store) UpdateTask(ctx context.Context, task *core.Task) error {
	var due any
	if task.DueDate != nil {
		due = *task.DueDate
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, category = ?, completed = ?, due_date = ?, university_id = ?
		WHERE id = ? AND user_id = ?`,
		task.Title, task.Description, task.Category, task.Completed, due,
		task.UniversityID, task.ID, task.UserID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTask implements store.Tasks.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
