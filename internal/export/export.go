// Package export serializes stored writeups to JSON for backups and
// migration.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cyberguild/guildhall/internal/store"
)

// Record is the serialized form of one writeup. Dates are RFC3339 strings.
type Record struct {
	ID           int64    `json:"id"`
	AuthorID     int64    `json:"author_id"`
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Tags         []string `json:"tags"`
	Content      string   `json:"content"`
	CreationDate string   `json:"creation_date"`
	EditDate     string   `json:"edit_date"`
}

// Writeups loads every writeup and writes them as a JSON array to w.
func Writeups(s *store.Store, w io.Writer) error {
	writeups, err := s.AllWriteups()
	if err != nil {
		return fmt.Errorf("loading writeups: %w", err)
	}

	records := make([]Record, 0, len(writeups))
	for _, wu := range writeups {
		records = append(records, Record{
			ID:           wu.ID,
			AuthorID:     wu.AuthorID,
			Title:        wu.Title,
			Slug:         wu.Slug,
			Tags:         wu.Tags,
			Content:      wu.Content,
			CreationDate: wu.CreationDate.UTC().Format(time.RFC3339),
			EditDate:     wu.EditDate.UTC().Format(time.RFC3339),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding writeups: %w", err)
	}
	return nil
}
