package models

import "time"

// Writeup is a member-authored article, usually a challenge walkthrough.
// Private writeups are hidden from anonymous visitors on the site.
type Writeup struct {
	ID           int64     `json:"id"`
	AuthorID     int64     `json:"author_id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Tags         []string  `json:"tags"`
	Content      string    `json:"content"`
	Private      bool      `json:"private"`
	CreationDate time.Time `json:"creation_date"`
	EditDate     time.Time `json:"edit_date"`

	// AuthorName is populated on reads that join the author; it is not a
	// column of the writeups table.
	AuthorName string `json:"-"`
}

// VisibleTo reports whether the writeup should be shown to a viewer.
func (w *Writeup) VisibleTo(authed bool) bool {
	return authed || !w.Private
}

// EditableBy reports whether the given user may edit or delete the writeup.
func (w *Writeup) EditableBy(userID int64, isAdmin bool) bool {
	return isAdmin || w.AuthorID == userID
}
