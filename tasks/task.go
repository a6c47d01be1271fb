// Package tasks holds the task resource exposed by dolist.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type (
	Task struct {
		ID          string    `json:"_id" msgpack:"id"`
		Title       string    `json:"title" msgpack:"title"`
		Description string    `json:"description" msgpack:"description"`
		CreatedAt   time.Time `json:"createdAt" msgpack:"created_at"`
	}

	// Patch lists the fields to change on a task, nil fields are left untouched.
	Patch struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}

	InvalidTask struct {
		Field  string
		Reason string
	}

	// Store persists tasks.
	//
	// Methods that take an id fail with ErrNotFound if no task has that id.
	Store interface {
		ListTasks(ctx context.Context) ([]Task, error)
		GetTask(ctx context.Context, id string) (*Task, error)
		CreateTask(ctx context.Context, task *Task) error
		UpdateTask(ctx context.Context, task *Task) error
		DeleteTask(ctx context.Context, id string) error
		DeleteAllTasks(ctx context.Context) (int64, error)
	}

	rules struct {
		Title       string `validate:"min=5"`
		Description string `validate:"min=10"`
	}
)

var (
	ErrNotFound = errors.New("task not found")

	validate = validator.New()
)

func (i InvalidTask) Error() string {
	return fmt.Sprintf("task field %v is invalid: %v", i.Field, i.Reason)
}

// New returns a valid task with a fresh id
func New(title, description string, now time.Time) (*Task, error) {
	t := &Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   now.UTC(),
	}
	return t, t.normalize()
}

// Apply changes t according to p, t is left untouched if the result is invalid.
func (t *Task) Apply(p Patch) error {
	changed := *t
	if p.Title != nil {
		changed.Title = *p.Title
	}
	if p.Description != nil {
		changed.Description = *p.Description
	}
	if err := changed.normalize(); err != nil {
		return err
	}
	*t = changed
	return nil
}

func (t *Task) normalize() error {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	err := validate.Struct(rules{Title: t.Title, Description: t.Description})
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return InvalidTask{Field: strings.ToLower(verrs[0].Field()), Reason: verrs[0].Tag()}
	}
	return err
}
