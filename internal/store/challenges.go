package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/cyberguild/guildhall/pkg/models"
)

// ChallengeWithSolves pairs a challenge with its solve count for listings.
type ChallengeWithSolves struct {
	Challenge *models.Challenge
	Solves    int
}

// ChallengeInfo summarizes one user's progress across all challenges.
type ChallengeInfo struct {
	Solved   []*models.Challenge
	Unsolved []*models.Challenge
	Points   int
	Rank     int
}

// CreateChallenge inserts a challenge, generating slug and dates. Returns
// ErrDuplicate on a title, slug, or flag collision.
func (s *Store) CreateChallenge(c *models.Challenge) error {
	if strings.TrimSpace(c.Title) == "" {
		return models.ErrInvalidTitle
	}

	db, err := s.conn()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	c.Slug = slug.Make(c.Title)
	c.CreationDate = now
	c.EditDate = now

	res, err := db.Exec(
		`INSERT INTO challenges (title, slug, content, flag, points, hidden, depreciated, creation_date, edit_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Title, c.Slug, c.Content, c.Flag, c.Points, c.Hidden, c.Depreciated,
		formatTime(c.CreationDate), formatTime(c.EditDate),
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting challenge: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

// UpdateChallenge rewrites a challenge, refreshing slug and edit date.
func (s *Store) UpdateChallenge(c *models.Challenge) error {
	if strings.TrimSpace(c.Title) == "" {
		return models.ErrInvalidTitle
	}

	db, err := s.conn()
	if err != nil {
		return err
	}

	c.Slug = slug.Make(c.Title)
	c.EditDate = time.Now().UTC()

	res, err := db.Exec(
		`UPDATE challenges SET title = ?, slug = ?, content = ?, flag = ?, points = ?,
		        hidden = ?, depreciated = ?, edit_date = ?
		 WHERE id = ?`,
		c.Title, c.Slug, c.Content, c.Flag, c.Points, c.Hidden, c.Depreciated,
		formatTime(c.EditDate), c.ID,
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("updating challenge %d: %w", c.ID, err)
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

// DeleteChallenge removes a challenge and, via cascade, its solves.
func (s *Store) DeleteChallenge(id int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec("DELETE FROM challenges WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting challenge %d: %w", id, err)
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

const challengeColumns = "id, title, slug, content, flag, points, hidden, depreciated, creation_date, edit_date"

// ChallengeByID fetches a challenge by id.
func (s *Store) ChallengeByID(id int64) (*models.Challenge, error) {
	return s.oneChallenge("SELECT "+challengeColumns+" FROM challenges WHERE id = ?", id)
}

// ChallengeBySlug fetches a challenge by its URL slug.
func (s *Store) ChallengeBySlug(sl string) (*models.Challenge, error) {
	return s.oneChallenge("SELECT "+challengeColumns+" FROM challenges WHERE slug = ?", sl)
}

// ChallengeByTitle fetches a challenge by exact title.
func (s *Store) ChallengeByTitle(title string) (*models.Challenge, error) {
	return s.oneChallenge("SELECT "+challengeColumns+" FROM challenges WHERE title = ?", title)
}

// LatestChallenge returns the most recently created visible challenge.
func (s *Store) LatestChallenge() (*models.Challenge, error) {
	return s.oneChallenge(
		"SELECT " + challengeColumns + " FROM challenges WHERE NOT hidden ORDER BY id DESC LIMIT 1")
}

func (s *Store) oneChallenge(query string, args ...any) (*models.Challenge, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return hydrateChallenge(db.QueryRow(query, args...))
}

// ChallengesWithSolves returns visible challenges with solve counts, newest
// first.
func (s *Store) ChallengesWithSolves() ([]ChallengeWithSolves, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT c.id, c.title, c.slug, c.content, c.flag, c.points, c.hidden, c.depreciated,
		        c.creation_date, c.edit_date, COUNT(cc.challenge_id)
		 FROM challenges c
		 LEFT JOIN completed_challenges cc ON cc.challenge_id = c.id
		 WHERE NOT c.hidden
		 GROUP BY c.id
		 ORDER BY c.creation_date DESC, c.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying challenges: %w", err)
	}
	defer rows.Close()

	var out []ChallengeWithSolves
	for rows.Next() {
		var solves int
		c, err := scanChallenge(rows, &solves)
		if err != nil {
			return nil, err
		}
		out = append(out, ChallengeWithSolves{Challenge: c, Solves: solves})
	}
	return out, rows.Err()
}

// SolveCountFor returns how many users have solved the challenge.
func (s *Store) SolveCountFor(challengeID int64) (int, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRow(
		"SELECT COUNT(*) FROM completed_challenges WHERE challenge_id = ?", challengeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting solves: %w", err)
	}
	return n, nil
}

// SearchChallenges runs a full-text search over visible challenges.
func (s *Store) SearchChallenges(query string, limit int) ([]*models.Challenge, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	q := ftsQuery(query)
	if q == "" {
		return nil, nil
	}

	rows, err := db.Query(
		`SELECT c.id, c.title, c.slug, c.content, c.flag, c.points, c.hidden, c.depreciated,
		        c.creation_date, c.edit_date
		 FROM challenges_fts f
		 JOIN challenges c ON c.id = f.rowid
		 WHERE challenges_fts MATCH ? AND NOT c.hidden
		 ORDER BY f.rank LIMIT ?`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("searching challenges: %w", err)
	}
	defer rows.Close()

	var out []*models.Challenge
	for rows.Next() {
		c, err := hydrateChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ClaimFlag records a solve for whatever challenge the flag belongs to.
// Returns ErrNotFound for an unknown flag and ErrAlreadyClaimed if the user
// has solved that challenge before. Depreciated challenges award zero points
// but still record the solve.
func (s *Store) ClaimFlag(discordID int64, flag string) (*models.Challenge, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	challenge, err := s.oneChallenge(
		"SELECT "+challengeColumns+" FROM challenges WHERE flag = ? AND NOT hidden", flag)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(
		"INSERT INTO completed_challenges (discord_id, challenge_id, claimed_at) VALUES (?, ?, ?)",
		discordID, challenge.ID, formatTime(time.Now().UTC()))
	if isUniqueViolation(err) {
		return nil, models.ErrAlreadyClaimed
	}
	if err != nil {
		return nil, fmt.Errorf("recording solve: %w", err)
	}
	if challenge.Depreciated {
		challenge.Points = 0
	}
	return challenge, nil
}

// Leaderboard returns the top scorers by total points. Depreciated
// challenges count for zero.
func (s *Store) Leaderboard(limit int) ([]models.LeaderboardEntry, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT cc.discord_id,
		        SUM(CASE WHEN c.depreciated THEN 0 ELSE c.points END) AS score,
		        COUNT(*) AS solves,
		        RANK() OVER (ORDER BY SUM(CASE WHEN c.depreciated THEN 0 ELSE c.points END) DESC) AS rank
		 FROM completed_challenges cc
		 JOIN challenges c ON c.id = cc.challenge_id
		 GROUP BY cc.discord_id
		 ORDER BY score DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.DiscordID, &e.Score, &e.Solves, &e.Rank); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MostSolved returns the challenges with the most solves.
func (s *Store) MostSolved(limit int) ([]models.SolveCount, error) {
	return s.solveCounts("DESC", limit)
}

// LeastSolved returns the challenges with the fewest solves.
func (s *Store) LeastSolved(limit int) ([]models.SolveCount, error) {
	return s.solveCounts("ASC", limit)
}

func (s *Store) solveCounts(order string, limit int) ([]models.SolveCount, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT c.title, COUNT(cc.challenge_id) AS solves
		 FROM challenges c
		 LEFT JOIN completed_challenges cc ON cc.challenge_id = c.id
		 WHERE NOT c.hidden
		 GROUP BY c.id
		 ORDER BY solves `+order+`, c.title
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying solve counts: %w", err)
	}
	defer rows.Close()

	var counts []models.SolveCount
	for rows.Next() {
		var sc models.SolveCount
		if err := rows.Scan(&sc.Title, &sc.Solves); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

// UserChallengeInfo reports one user's solves, points, and leaderboard rank.
// The rank counts scorers strictly above the user plus one, matching the
// RANK() window Leaderboard uses, so tied scores share a rank.
func (s *Store) UserChallengeInfo(discordID int64) (*ChallengeInfo, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT c.id, c.title, c.slug, c.content, c.flag, c.points, c.hidden, c.depreciated,
		        c.creation_date, c.edit_date,
		        EXISTS (SELECT 1 FROM completed_challenges cc
		                WHERE cc.challenge_id = c.id AND cc.discord_id = ?)
		 FROM challenges c
		 WHERE NOT c.hidden
		 ORDER BY c.id`, discordID)
	if err != nil {
		return nil, fmt.Errorf("querying challenge info: %w", err)
	}
	defer rows.Close()

	info := &ChallengeInfo{}
	for rows.Next() {
		var solved bool
		c, err := scanChallenge(rows, &solved)
		if err != nil {
			return nil, err
		}
		if solved {
			info.Solved = append(info.Solved, c)
			if !c.Depreciated {
				info.Points += c.Points
			}
		} else {
			info.Unsolved = append(info.Unsolved, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.QueryRow(
		`WITH scores AS (
		    SELECT cc.discord_id,
		           SUM(CASE WHEN c.depreciated THEN 0 ELSE c.points END) AS score
		    FROM completed_challenges cc
		    JOIN challenges c ON c.id = cc.challenge_id
		    GROUP BY cc.discord_id
		 )
		 SELECT COUNT(*) + 1 FROM scores WHERE score > ?`,
		info.Points).Scan(&info.Rank)
	if err != nil {
		return nil, fmt.Errorf("computing rank: %w", err)
	}
	return info, nil
}

func scanChallenge(row rowScanner, extra ...any) (*models.Challenge, error) {
	var (
		c       models.Challenge
		created string
		edited  string
	)
	dest := []any{&c.ID, &c.Title, &c.Slug, &c.Content, &c.Flag, &c.Points,
		&c.Hidden, &c.Depreciated, &created, &edited}
	dest = append(dest, extra...)

	err := row.Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning challenge: %w", err)
	}

	if c.CreationDate, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse creation_date: %w", err)
	}
	if c.EditDate, err = parseTime(edited); err != nil {
		return nil, fmt.Errorf("parse edit_date: %w", err)
	}
	return &c, nil
}

func hydrateChallenge(row rowScanner) (*models.Challenge, error) {
	return scanChallenge(row)
}
