package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cyberguild/guildhall/pkg/models"
)

// TodoFilter selects which todos to list.
type TodoFilter struct {
	// State is one of "open", "completed", "cancelled".
	State string
	// Assigned, when non-nil, restricts to todos assigned to that user.
	Assigned *int64
}

// Todo list states.
const (
	TodoOpen      = "open"
	TodoCompleted = "completed"
	TodoCancelled = "cancelled"
)

// CreateTodo inserts a todo, stamping the start time.
func (s *Store) CreateTodo(t *models.Todo) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if t.Started.IsZero() {
		t.Started = time.Now().UTC()
	}

	res, err := db.Exec(
		`INSERT INTO todos (content, assigned, deadline, started, completed, cancelled)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.Content, nullableInt(t.Assigned), formatTimePtr(t.Deadline),
		formatTime(t.Started), formatTimePtr(t.Completed), t.Cancelled,
	)
	if err != nil {
		return fmt.Errorf("inserting todo: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// TodoByID fetches a todo by id.
func (s *Store) TodoByID(id int64) (*models.Todo, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return hydrateTodo(db.QueryRow(
		"SELECT id, content, assigned, deadline, started, completed, cancelled FROM todos WHERE id = ?", id))
}

// ListTodos returns todos matching the filter, newest first.
func (s *Store) ListTodos(f TodoFilter) ([]*models.Todo, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	query := "SELECT id, content, assigned, deadline, started, completed, cancelled FROM todos WHERE "
	var args []any

	switch f.State {
	case TodoCompleted:
		query += "completed IS NOT NULL AND NOT cancelled"
	case TodoCancelled:
		query += "completed IS NOT NULL AND cancelled"
	default:
		query += "completed IS NULL"
	}
	if f.Assigned != nil {
		query += " AND assigned = ?"
		args = append(args, *f.Assigned)
	}
	query += " ORDER BY id DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		t, err := hydrateTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// CompleteTodo marks a todo finished.
func (s *Store) CompleteTodo(id int64) error {
	return s.execTodo(
		"UPDATE todos SET completed = ?, cancelled = 0 WHERE id = ?",
		formatTime(time.Now().UTC()), id)
}

// CancelTodo marks a todo abandoned.
func (s *Store) CancelTodo(id int64) error {
	return s.execTodo(
		"UPDATE todos SET completed = ?, cancelled = 1 WHERE id = ?",
		formatTime(time.Now().UTC()), id)
}

// AssignTodo sets or clears (nil) the assignee.
func (s *Store) AssignTodo(id int64, assignee *int64) error {
	return s.execTodo("UPDATE todos SET assigned = ? WHERE id = ?", nullableInt(assignee), id)
}

// SetTodoContent replaces the todo text.
func (s *Store) SetTodoContent(id int64, content string) error {
	return s.execTodo("UPDATE todos SET content = ? WHERE id = ?", content, id)
}

// SetTodoDeadline sets or clears (nil) the deadline.
func (s *Store) SetTodoDeadline(id int64, deadline *time.Time) error {
	return s.execTodo("UPDATE todos SET deadline = ? WHERE id = ?", formatTimePtr(deadline), id)
}

func (s *Store) execTodo(query string, args ...any) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("updating todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func hydrateTodo(row rowScanner) (*models.Todo, error) {
	var (
		t         models.Todo
		assigned  sql.NullInt64
		deadline  sql.NullString
		started   string
		completed sql.NullString
	)
	err := row.Scan(&t.ID, &t.Content, &assigned, &deadline, &started, &completed, &t.Cancelled)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning todo: %w", err)
	}

	if assigned.Valid {
		t.Assigned = &assigned.Int64
	}
	if t.Deadline, err = parseTimePtr(deadline); err != nil {
		return nil, fmt.Errorf("parse deadline: %w", err)
	}
	if t.Started, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("parse started: %w", err)
	}
	if t.Completed, err = parseTimePtr(completed); err != nil {
		return nil, fmt.Errorf("parse completed: %w", err)
	}
	return &t, nil
}
