// Package store implements sqlite persistence for Guildhall. Entity accessors
// are grouped one file per table; schema DDL lives in schema.go.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cyberguild/guildhall/pkg/models"
)

// EmailCodec seals member emails at rest and produces the deterministic
// digest used for equality lookups.
type EmailCodec interface {
	Seal(email string) (string, error)
	Open(sealed string) (string, error)
	Digest(email string) string
}

// plainCodec stores emails unmodified. Used when no email key is configured
// and in tests.
type plainCodec struct{}

func (plainCodec) Seal(email string) (string, error) {
	return email, nil
}

func (plainCodec) Open(sealed string) (string, error) {
	return sealed, nil
}

func (plainCodec) Digest(email string) string {
	return email
}

// Store wraps the sqlite database shared by the bot, web front-end, and
// export command.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	emails EmailCodec
	closed bool
}

// Option configures a Store during Open.
type Option func(*Store)

// WithEmailCodec sets the codec used for member emails. Without it emails are
// stored as plain text.
func WithEmailCodec(c EmailCodec) Option {
	return func(s *Store) { s.emails = c }
}

// Open opens (creating if needed) the guildhall database under dataDir and
// applies the schema. Concurrent processes share the file through sqlite's
// WAL mode.
func Open(dataDir string, opts ...Option) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "guildhall.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{db: db, emails: plainCodec{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database handle. Close is idempotent; operations after
// Close return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}
	return nil
}

// conn returns the database handle, or ErrStoreClosed.
func (s *Store) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.db == nil {
		return nil, models.ErrStoreClosed
	}
	return s.db, nil
}

// Timestamps are stored as RFC3339 text, matching what sqlite's date
// functions understand.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
