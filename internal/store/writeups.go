package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/cyberguild/guildhall/pkg/models"
)

// WriteupMatch is a search hit: the writeup plus an FTS snippet with the
// matched terms wrapped in ** markers.
type WriteupMatch struct {
	Writeup  *models.Writeup
	Headline string
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

func decodeTags(raw string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

// ftsQuery turns free text into an FTS5 query that cannot be derailed by
// MATCH syntax: each term is quoted and prefix-matched.
func ftsQuery(input string) string {
	terms := strings.Fields(input)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, "")
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"*`)
	}
	return strings.Join(quoted, " ")
}

// CreateWriteup inserts a writeup, generating the slug from the title and
// stamping both dates. Returns ErrDuplicate on a title or slug collision.
func (s *Store) CreateWriteup(w *models.Writeup) error {
	if strings.TrimSpace(w.Title) == "" {
		return models.ErrInvalidTitle
	}

	db, err := s.conn()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	w.Slug = slug.Make(w.Title)
	w.CreationDate = now
	w.EditDate = now

	res, err := db.Exec(
		`INSERT INTO writeups (author_id, title, slug, tags, content, private, creation_date, edit_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.AuthorID, w.Title, w.Slug, encodeTags(w.Tags), w.Content, w.Private,
		formatTime(w.CreationDate), formatTime(w.EditDate),
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting writeup: %w", err)
	}
	w.ID, err = res.LastInsertId()
	return err
}

// UpdateWriteup rewrites an existing writeup. The slug follows the title and
// the edit date is refreshed; the creation date is untouched.
func (s *Store) UpdateWriteup(w *models.Writeup) error {
	if strings.TrimSpace(w.Title) == "" {
		return models.ErrInvalidTitle
	}

	db, err := s.conn()
	if err != nil {
		return err
	}

	w.Slug = slug.Make(w.Title)
	w.EditDate = time.Now().UTC()

	res, err := db.Exec(
		`UPDATE writeups SET title = ?, slug = ?, tags = ?, content = ?, private = ?, edit_date = ?
		 WHERE id = ?`,
		w.Title, w.Slug, encodeTags(w.Tags), w.Content, w.Private, formatTime(w.EditDate), w.ID,
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("updating writeup %d: %w", w.ID, err)
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

// DeleteWriteup removes a writeup by id.
func (s *Store) DeleteWriteup(id int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec("DELETE FROM writeups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting writeup %d: %w", id, err)
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

const writeupColumns = `w.id, w.author_id, w.title, w.slug, w.tags, w.content, w.private,
	w.creation_date, w.edit_date, COALESCE(u.username, '')`

const writeupFrom = ` FROM writeups w LEFT JOIN users u ON u.discord_id = w.author_id`

// WriteupByID fetches a single writeup with its author name.
func (s *Store) WriteupByID(id int64) (*models.Writeup, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return hydrateWriteup(db.QueryRow(
		"SELECT "+writeupColumns+writeupFrom+" WHERE w.id = ?", id))
}

// WriteupBySlug fetches a single writeup by its URL slug.
func (s *Store) WriteupBySlug(sl string) (*models.Writeup, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return hydrateWriteup(db.QueryRow(
		"SELECT "+writeupColumns+writeupFrom+" WHERE w.slug = ?", sl))
}

// WriteupByTitle fetches a single writeup by exact title.
func (s *Store) WriteupByTitle(title string) (*models.Writeup, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return hydrateWriteup(db.QueryRow(
		"SELECT "+writeupColumns+writeupFrom+" WHERE w.title = ?", title))
}

// AllWriteups returns every writeup, newest first.
func (s *Store) AllWriteups() ([]*models.Writeup, error) {
	return s.queryWriteups("SELECT " + writeupColumns + writeupFrom + " ORDER BY w.creation_date DESC, w.id DESC")
}

// WriteupsByTag returns writeups carrying the given tag, newest first.
func (s *Store) WriteupsByTag(tag string) ([]*models.Writeup, error) {
	return s.queryWriteups(
		"SELECT "+writeupColumns+writeupFrom+
			` WHERE EXISTS (SELECT 1 FROM json_each(w.tags) WHERE json_each.value = ?)
			 ORDER BY w.creation_date DESC, w.id DESC`, tag)
}

// WriteupsByAuthor returns writeups authored by the named user, newest first.
func (s *Store) WriteupsByAuthor(username string) ([]*models.Writeup, error) {
	return s.queryWriteups(
		"SELECT "+writeupColumns+writeupFrom+
			" WHERE u.username = ? ORDER BY w.creation_date DESC, w.id DESC", username)
}

// WriteupTags returns the tags of public writeups, most used first.
func (s *Store) WriteupTags() ([]string, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT json_each.value FROM writeups, json_each(writeups.tags)
		 WHERE NOT writeups.private
		 GROUP BY json_each.value ORDER BY COUNT(*) DESC, json_each.value`)
	if err != nil {
		return nil, fmt.Errorf("querying writeup tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// SearchWriteups runs a full-text search ranked by relevance, returning up to
// limit matches with snippet headlines.
func (s *Store) SearchWriteups(query string, limit int) ([]WriteupMatch, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	q := ftsQuery(query)
	if q == "" {
		return nil, nil
	}

	rows, err := db.Query(
		"SELECT "+writeupColumns+", snippet(writeups_fts, 2, '**', '**', '...', 24)"+
			` FROM writeups_fts f
			 JOIN writeups w ON w.id = f.rowid
			 LEFT JOIN users u ON u.discord_id = w.author_id
			 WHERE writeups_fts MATCH ?
			 ORDER BY f.rank LIMIT ?`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("searching writeups: %w", err)
	}
	defer rows.Close()

	var matches []WriteupMatch
	for rows.Next() {
		w, headline, err := hydrateWriteupMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, WriteupMatch{Writeup: w, Headline: headline})
	}
	return matches, rows.Err()
}

func (s *Store) queryWriteups(query string, args ...any) ([]*models.Writeup, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying writeups: %w", err)
	}
	defer rows.Close()

	var writeups []*models.Writeup
	for rows.Next() {
		w, err := hydrateWriteup(rows)
		if err != nil {
			return nil, err
		}
		writeups = append(writeups, w)
	}
	return writeups, rows.Err()
}

func scanWriteup(row rowScanner, extra ...any) (*models.Writeup, error) {
	var (
		w       models.Writeup
		tags    string
		created string
		edited  string
	)
	dest := []any{&w.ID, &w.AuthorID, &w.Title, &w.Slug, &tags, &w.Content, &w.Private,
		&created, &edited, &w.AuthorName}
	dest = append(dest, extra...)

	err := row.Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning writeup: %w", err)
	}

	if w.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if w.CreationDate, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse creation_date: %w", err)
	}
	if w.EditDate, err = parseTime(edited); err != nil {
		return nil, fmt.Errorf("parse edit_date: %w", err)
	}
	return &w, nil
}

func hydrateWriteup(row rowScanner) (*models.Writeup, error) {
	return scanWriteup(row)
}

func hydrateWriteupMatch(row rowScanner) (*models.Writeup, string, error) {
	var headline string
	w, err := scanWriteup(row, &headline)
	return w, headline, err
}
