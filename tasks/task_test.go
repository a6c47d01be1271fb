package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	now := time.Date(2022, 1, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	task, err := New("  buy milk  ", "  two bottles please ", now)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", task.Title)
	assert.Equal(t, "two bottles please", task.Description)
	assert.Equal(t, time.UTC, task.CreatedAt.Location())
	assert.NotEmpty(t, task.ID)

	other, err := New("buy milk", "two bottles please", now)
	require.NoError(t, err)
	assert.NotEqual(t, task.ID, other.ID)
}

func TestInvalidTask(t *testing.T) {
	for _, tc := range []struct {
		title, description string
		field              string
	}{
		{"abc", "long enough description", "title"},
		{"     abc     ", "long enough description", "title"},
		{"a good title", "short", "description"},
		{"a good title", "   short     ", "description"},
	} {
		_, err := New(tc.title, tc.description, time.Now())
		var invalid InvalidTask
		if !errors.As(err, &invalid) {
			t.Fatalf("New(%q, %q) should fail with InvalidTask, got %v", tc.title, tc.description, err)
		} else if invalid.Field != tc.field {
			t.Errorf("New(%q, %q) should complain about %v, got %v", tc.title, tc.description, tc.field, invalid.Field)
		}
	}
}

func TestApply(t *testing.T) {
	task, err := New("buy milk", "two bottles please", time.Now())
	require.NoError(t, err)
	original := *task

	short := "abc"
	err = task.Apply(Patch{Title: &short})
	require.Error(t, err)
	assert.Equal(t, original, *task, "invalid patches must not change the task")

	title := " buy bread "
	require.NoError(t, task.Apply(Patch{Title: &title}))
	assert.Equal(t, "buy bread", task.Title)
	assert.Equal(t, original.Description, task.Description)
	assert.Equal(t, original.ID, task.ID)
}
