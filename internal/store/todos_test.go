package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguild/guildhall/pkg/models"
)

func seedTodo(t *testing.T, s *Store, content string) *models.Todo {
	t.Helper()
	todo := &models.Todo{Content: content}
	require.NoError(t, s.CreateTodo(todo))
	return todo
}

func TestCreateTodo(t *testing.T) {
	s := openTestStore(t)
	todo := seedTodo(t, s, "Order stickers")

	got, err := s.TodoByID(todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order stickers", got.Content)
	assert.False(t, got.Started.IsZero())
	assert.Nil(t, got.Completed)
	assert.Equal(t, "in progress", got.Status())
}

func TestTodoStateTransitions(t *testing.T) {
	s := openTestStore(t)

	t.Run("complete", func(t *testing.T) {
		todo := seedTodo(t, s, "Book the room")
		require.NoError(t, s.CompleteTodo(todo.ID))

		got, err := s.TodoByID(todo.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Completed)
		assert.False(t, got.Cancelled)
		assert.Equal(t, "completed", got.Status())
	})

	t.Run("cancel", func(t *testing.T) {
		todo := seedTodo(t, s, "Never mind")
		require.NoError(t, s.CancelTodo(todo.ID))

		got, err := s.TodoByID(todo.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Completed)
		assert.True(t, got.Cancelled)
		assert.Equal(t, "cancelled", got.Status())
	})

	t.Run("missing id", func(t *testing.T) {
		assert.ErrorIs(t, s.CompleteTodo(9999), models.ErrNotFound)
	})
}

func TestTodoAssignmentAndEdits(t *testing.T) {
	s := openTestStore(t)
	todo := seedTodo(t, s, "Prep the workshop")

	assignee := int64(100)
	require.NoError(t, s.AssignTodo(todo.ID, &assignee))

	got, err := s.TodoByID(todo.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Assigned)
	assert.Equal(t, int64(100), *got.Assigned)

	require.NoError(t, s.AssignTodo(todo.ID, nil))
	got, err = s.TodoByID(todo.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Assigned)

	require.NoError(t, s.SetTodoContent(todo.ID, "Prep the workshop and slides"))
	deadline := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetTodoDeadline(todo.ID, &deadline))

	got, err = s.TodoByID(todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Prep the workshop and slides", got.Content)
	require.NotNil(t, got.Deadline)
	assert.True(t, got.Deadline.Equal(deadline))
}

func TestListTodos(t *testing.T) {
	s := openTestStore(t)

	open := seedTodo(t, s, "Open one")
	done := seedTodo(t, s, "Done one")
	dropped := seedTodo(t, s, "Dropped one")
	mine := seedTodo(t, s, "Mine")

	require.NoError(t, s.CompleteTodo(done.ID))
	require.NoError(t, s.CancelTodo(dropped.ID))
	me := int64(100)
	require.NoError(t, s.AssignTodo(mine.ID, &me))

	t.Run("open", func(t *testing.T) {
		got, err := s.ListTodos(TodoFilter{State: TodoOpen})
		require.NoError(t, err)
		require.Len(t, got, 2)
		// Newest first.
		assert.Equal(t, mine.ID, got[0].ID)
		assert.Equal(t, open.ID, got[1].ID)
	})

	t.Run("completed", func(t *testing.T) {
		got, err := s.ListTodos(TodoFilter{State: TodoCompleted})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, done.ID, got[0].ID)
	})

	t.Run("cancelled", func(t *testing.T) {
		got, err := s.ListTodos(TodoFilter{State: TodoCancelled})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, dropped.ID, got[0].ID)
	})

	t.Run("assigned filter", func(t *testing.T) {
		got, err := s.ListTodos(TodoFilter{State: TodoOpen, Assigned: &me})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, mine.ID, got[0].ID)
	})
}
