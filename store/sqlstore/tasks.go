package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andrebq/dolist/tasks"
)

func (s *Store) ListTasks(ctx context.Context) ([]tasks.Task, error) {
	rows, err := s.db.QueryContext(ctx, `select task_id, title, description, created_at from tasks order by created_at asc, task_id asc`)
	if err != nil {
		return nil, fmt.Errorf("unable to list tasks, cause %w", err)
	}
	defer rows.Close()
	var out []tasks.Task
	for rows.Next() {
		var t tasks.Task
		err = rows.Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("unable to scan task, cause %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, id string) (*tasks.Task, error) {
	var t tasks.Task
	err := s.db.QueryRowContext(ctx, s.rebind(`select task_id, title, description, created_at from tasks where task_id = ?`), id).
		Scan(&t.ID, &t.Title, &t.Description, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tasks.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("unable to load task %v, cause %w", id, err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, task *tasks.Task) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`insert into tasks(task_id, title, description, created_at) values (?, ?, ?, ?)`),
		task.ID, task.Title, task.Description, task.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("unable to create task, cause %w", err)
	}
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, task *tasks.Task) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`update tasks set title = ?, description = ? where task_id = ?`),
		task.Title, task.Description, task.ID)
	if err != nil {
		return fmt.Errorf("unable to update task %v, cause %w", task.ID, err)
	}
	return expectAffected(res, task.ID)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`delete from tasks where task_id = ?`), id)
	if err != nil {
		return fmt.Errorf("unable to delete task %v, cause %w", id, err)
	}
	return expectAffected(res, id)
}

func (s *Store) DeleteAllTasks(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `delete from tasks`)
	if err != nil {
		return 0, fmt.Errorf("unable to delete tasks, cause %w", err)
	}
	return res.RowsAffected()
}

func expectAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check changes to task %v, cause %w", id, err)
	}
	if n == 0 {
		return tasks.ErrNotFound
	}
	return nil
}
