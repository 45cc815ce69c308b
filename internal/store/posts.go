package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/cyberguild/guildhall/pkg/models"
)

// PostMatch is a blog search hit with its snippet headline.
type PostMatch struct {
	Post     *models.Post
	Headline string
}

// CreatePost inserts a blog post, generating slug and dates.
func (s *Store) CreatePost(p *models.Post) error {
	if strings.TrimSpace(p.Title) == "" {
		return models.ErrInvalidTitle
	}

	db, err := s.conn()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.Slug = slug.Make(p.Title)
	p.CreationDate = now
	p.EditDate = now

	res, err := db.Exec(
		`INSERT INTO posts (title, slug, tags, content, creation_date, edit_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Title, p.Slug, encodeTags(p.Tags), p.Content,
		formatTime(p.CreationDate), formatTime(p.EditDate),
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdatePost rewrites an existing post, refreshing slug and edit date.
func (s *Store) UpdatePost(p *models.Post) error {
	if strings.TrimSpace(p.Title) == "" {
		return models.ErrInvalidTitle
	}

	db, err := s.conn()
	if err != nil {
		return err
	}

	p.Slug = slug.Make(p.Title)
	p.EditDate = time.Now().UTC()

	res, err := db.Exec(
		"UPDATE posts SET title = ?, slug = ?, tags = ?, content = ?, edit_date = ? WHERE id = ?",
		p.Title, p.Slug, encodeTags(p.Tags), p.Content, formatTime(p.EditDate), p.ID,
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("updating post %d: %w", p.ID, err)
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

// DeletePost removes a post by id.
func (s *Store) DeletePost(id int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec("DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
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

const postColumns = "id, title, slug, tags, content, creation_date, edit_date"

// PostByID fetches a post by id.
func (s *Store) PostByID(id int64) (*models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return hydratePost(db.QueryRow(
		"SELECT "+postColumns+" FROM posts WHERE id = ?", id))
}

// PostBySlug fetches a post by its URL slug.
func (s *Store) PostBySlug(sl string) (*models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return hydratePost(db.QueryRow(
		"SELECT "+postColumns+" FROM posts WHERE slug = ?", sl))
}

// AllPosts returns every post, newest first.
func (s *Store) AllPosts() ([]*models.Post, error) {
	return s.queryPosts("SELECT " + postColumns + " FROM posts ORDER BY creation_date DESC, id DESC")
}

// PostsByTag returns posts carrying the given tag, newest first.
func (s *Store) PostsByTag(tag string) ([]*models.Post, error) {
	return s.queryPosts(
		"SELECT "+postColumns+
			` FROM posts
			 WHERE EXISTS (SELECT 1 FROM json_each(posts.tags) WHERE json_each.value = ?)
			 ORDER BY creation_date DESC, id DESC`, tag)
}

// PostTags returns all blog tags, most used first.
func (s *Store) PostTags() ([]string, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT json_each.value FROM posts, json_each(posts.tags)
		 GROUP BY json_each.value ORDER BY COUNT(*) DESC, json_each.value`)
	if err != nil {
		return nil, fmt.Errorf("querying post tags: %w", err)
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

// SearchPosts runs a full-text search over posts with snippet headlines.
func (s *Store) SearchPosts(query string, limit int) ([]PostMatch, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	q := ftsQuery(query)
	if q == "" {
		return nil, nil
	}

	rows, err := db.Query(
		`SELECT p.id, p.title, p.slug, p.tags, p.content, p.creation_date, p.edit_date,
		        snippet(posts_fts, 2, '**', '**', '...', 24)
		 FROM posts_fts f
		 JOIN posts p ON p.id = f.rowid
		 WHERE posts_fts MATCH ?
		 ORDER BY f.rank LIMIT ?`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("searching posts: %w", err)
	}
	defer rows.Close()

	var matches []PostMatch
	for rows.Next() {
		var headline string
		p, err := scanPost(rows, &headline)
		if err != nil {
			return nil, err
		}
		matches = append(matches, PostMatch{Post: p, Headline: headline})
	}
	return matches, rows.Err()
}

func (s *Store) queryPosts(query string, args ...any) ([]*models.Post, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := hydratePost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func scanPost(row rowScanner, extra ...any) (*models.Post, error) {
	var (
		p       models.Post
		tags    string
		created string
		edited  string
	)
	dest := []any{&p.ID, &p.Title, &p.Slug, &tags, &p.Content, &created, &edited}
	dest = append(dest, extra...)

	err := row.Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post: %w", err)
	}

	if p.Tags, err = decodeTags(tags); err != nil {
		return nil, err
	}
	if p.CreationDate, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse creation_date: %w", err)
	}
	if p.EditDate, err = parseTime(edited); err != nil {
		return nil, fmt.Errorf("parse edit_date: %w", err)
	}
	return &p, nil
}

func hydratePost(row rowScanner) (*models.Post, error) {
	return scanPost(row)
}
