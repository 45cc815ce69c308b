package models

import "time"

// Post is a blog entry written by the admins. Unlike writeups, posts have no
// author column and are always public.
type Post struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Tags         []string  `json:"tags"`
	Content      string    `json:"content"`
	CreationDate time.Time `json:"creation_date"`
	EditDate     time.Time `json:"edit_date"`
}
