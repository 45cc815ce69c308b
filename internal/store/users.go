package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cyberguild/guildhall/pkg/models"
)

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure. modernc.org/sqlite exposes these only through the error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser inserts a newly verified member. The email is sealed before it
// touches the database. Returns ErrDuplicate if the Discord id or email is
// already registered.
func (s *Store) CreateUser(u *models.User) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	sealed, err := s.emails.Seal(u.Email)
	if err != nil {
		return fmt.Errorf("seal email: %w", err)
	}

	now := time.Now().UTC()
	if u.JoinedAt.IsZero() {
		u.JoinedAt = now
	}
	if u.LastTalked.IsZero() {
		u.LastTalked = now
	}

	_, err = db.Exec(
		`INSERT INTO users (discord_id, username, email, email_digest, is_admin, joined_at, last_talked, flagged_for_deletion)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.DiscordID, u.Username, sealed, s.emails.Digest(u.Email), u.IsAdmin,
		formatTime(u.JoinedAt), formatTime(u.LastTalked), formatTimePtr(u.FlaggedForDeletion),
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting user %d: %w", u.DiscordID, err)
	}
	return nil
}

// UserByID fetches a user by Discord id. Returns ErrNotFound if the member
// has not verified.
func (s *Store) UserByID(discordID int64) (*models.User, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.hydrateUser(db.QueryRow(
		`SELECT discord_id, username, email, is_admin, joined_at, last_talked, flagged_for_deletion
		 FROM users WHERE discord_id = ?`, discordID))
}

// UserByEmail fetches a user by email address, using the digest column so
// sealed emails stay opaque.
func (s *Store) UserByEmail(email string) (*models.User, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.hydrateUser(db.QueryRow(
		`SELECT discord_id, username, email, is_admin, joined_at, last_talked, flagged_for_deletion
		 FROM users WHERE email_digest = ?`, s.emails.Digest(email)))
}

// UserByUsername fetches a user by their current Discord username.
func (s *Store) UserByUsername(username string) (*models.User, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.hydrateUser(db.QueryRow(
		`SELECT discord_id, username, email, is_admin, joined_at, last_talked, flagged_for_deletion
		 FROM users WHERE username = ?`, username))
}

// AllUsers returns every registered user.
func (s *Store) AllUsers() ([]*models.User, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT discord_id, username, email, is_admin, joined_at, last_talked, flagged_for_deletion
		 FROM users ORDER BY discord_id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := s.hydrateUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UsersFlaggedBefore returns users whose deletion flag predates the cutoff.
func (s *Store) UsersFlaggedBefore(cutoff time.Time) ([]*models.User, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT discord_id, username, email, is_admin, joined_at, last_talked, flagged_for_deletion
		 FROM users WHERE flagged_for_deletion IS NOT NULL AND flagged_for_deletion < ?`,
		formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("querying flagged users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := s.hydrateUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TouchLastTalked records member activity.
func (s *Store) TouchLastTalked(discordID int64, at time.Time) error {
	return s.execUser(
		"UPDATE users SET last_talked = ? WHERE discord_id = ?",
		formatTime(at), discordID)
}

// UpdateUserProfile refreshes the username and admin flag from guild state.
func (s *Store) UpdateUserProfile(discordID int64, username string, isAdmin bool) error {
	return s.execUser(
		"UPDATE users SET username = ?, is_admin = ? WHERE discord_id = ?",
		username, isAdmin, discordID)
}

// FlagUserForDeletion marks an inactive user for removal. Passing the zero
// time clears the flag.
func (s *Store) FlagUserForDeletion(discordID int64, at time.Time) error {
	var v any
	if !at.IsZero() {
		v = formatTime(at)
	}
	return s.execUser(
		"UPDATE users SET flagged_for_deletion = ? WHERE discord_id = ?",
		v, discordID)
}

// DeleteUser removes a user row. The user's writeups remain.
func (s *Store) DeleteUser(discordID int64) error {
	return s.execUser("DELETE FROM users WHERE discord_id = ?", discordID)
}

// execUser runs a user mutation and maps an empty result to ErrNotFound.
func (s *Store) execUser(query string, args ...any) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
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

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) hydrateUser(row rowScanner) (*models.User, error) {
	var (
		u       models.User
		sealed  string
		joined  string
		talked  string
		flagged sql.NullString
	)
	err := row.Scan(&u.DiscordID, &u.Username, &sealed, &u.IsAdmin, &joined, &talked, &flagged)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	if u.Email, err = s.emails.Open(sealed); err != nil {
		return nil, fmt.Errorf("open sealed email: %w", err)
	}
	if u.JoinedAt, err = parseTime(joined); err != nil {
		return nil, fmt.Errorf("parse joined_at: %w", err)
	}
	if u.LastTalked, err = parseTime(talked); err != nil {
		return nil, fmt.Errorf("parse last_talked: %w", err)
	}
	if u.FlaggedForDeletion, err = parseTimePtr(flagged); err != nil {
		return nil, fmt.Errorf("parse flagged_for_deletion: %w", err)
	}
	return &u, nil
}
