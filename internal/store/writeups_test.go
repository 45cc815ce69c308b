package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguild/guildhall/pkg/models"
)

func seedWriteup(t *testing.T, s *Store, authorID int64, title string, tags []string, private bool) *models.Writeup {
	t.Helper()
	w := &models.Writeup{
		AuthorID: authorID,
		Title:    title,
		Tags:     tags,
		Content:  "Some **markdown** about " + title + ".",
		Private:  private,
	}
	require.NoError(t, s.CreateWriteup(w))
	return w
}

func TestCreateWriteup(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")

	w := seedWriteup(t, s, 100, "Pwning The Space Bulb", []string{"iot", "hardware"}, false)

	t.Run("slug and dates are generated", func(t *testing.T) {
		assert.Equal(t, "pwning-the-space-bulb", w.Slug)
		assert.False(t, w.CreationDate.IsZero())
		assert.False(t, w.EditDate.IsZero())
	})

	t.Run("author is joined on read", func(t *testing.T) {
		got, err := s.WriteupBySlug("pwning-the-space-bulb")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.AuthorName)
		assert.Equal(t, []string{"iot", "hardware"}, got.Tags)
	})

	t.Run("duplicate title rejected", func(t *testing.T) {
		err := s.CreateWriteup(&models.Writeup{
			AuthorID: 100, Title: "Pwning The Space Bulb", Content: "again",
		})
		assert.ErrorIs(t, err, models.ErrDuplicate)
	})
}

func TestWriteupLookups(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")
	seedUser(t, s, 101, "bob")
	seedWriteup(t, s, 100, "SQL Injection Basics", []string{"web"}, false)
	seedWriteup(t, s, 101, "Buffer Overflows", []string{"pwn", "memory"}, false)
	seedWriteup(t, s, 100, "Secret Notes", []string{"web"}, true)

	t.Run("all newest first", func(t *testing.T) {
		ws, err := s.AllWriteups()
		require.NoError(t, err)
		require.Len(t, ws, 3)
		assert.Equal(t, "Secret Notes", ws[0].Title)
	})

	t.Run("by tag", func(t *testing.T) {
		ws, err := s.WriteupsByTag("web")
		require.NoError(t, err)
		assert.Len(t, ws, 2)
	})

	t.Run("by author", func(t *testing.T) {
		ws, err := s.WriteupsByAuthor("bob")
		require.NoError(t, err)
		require.Len(t, ws, 1)
		assert.Equal(t, "Buffer Overflows", ws[0].Title)
	})

	t.Run("by title", func(t *testing.T) {
		w, err := s.WriteupByTitle("Buffer Overflows")
		require.NoError(t, err)
		assert.Equal(t, "bob", w.AuthorName)
	})

	t.Run("missing slug", func(t *testing.T) {
		_, err := s.WriteupBySlug("nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestWriteupTagsArePublicOnly(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")
	seedWriteup(t, s, 100, "Public One", []string{"web"}, false)
	seedWriteup(t, s, 100, "Private One", []string{"secret"}, true)

	tags, err := s.WriteupTags()
	require.NoError(t, err)
	assert.Contains(t, tags, "web")
	assert.NotContains(t, tags, "secret")
}

func TestUpdateWriteup(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")
	w := seedWriteup(t, s, 100, "Original Title", nil, false)

	w.Title = "Renamed Title"
	w.Content = "Updated body."
	require.NoError(t, s.UpdateWriteup(w))

	got, err := s.WriteupByID(w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Title", got.Title)
	// Slug tracks the title.
	assert.Equal(t, "renamed-title", got.Slug)
	assert.True(t, got.EditDate.After(got.CreationDate) || got.EditDate.Equal(got.CreationDate))
}

func TestDeleteWriteup(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")
	w := seedWriteup(t, s, 100, "Doomed", nil, false)

	require.NoError(t, s.DeleteWriteup(w.ID))
	_, err := s.WriteupByID(w.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, s.DeleteWriteup(w.ID), models.ErrNotFound)
}

func TestSearchWriteups(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")
	seedWriteup(t, s, 100, "Heap Exploitation Primer", []string{"pwn"}, false)
	seedWriteup(t, s, 100, "Web Cache Poisoning", []string{"web"}, false)

	t.Run("matches content terms", func(t *testing.T) {
		hits, err := s.SearchWriteups("heap", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Heap Exploitation Primer", hits[0].Writeup.Title)
		assert.NotEmpty(t, hits[0].Headline)
	})

	t.Run("prefix matching", func(t *testing.T) {
		hits, err := s.SearchWriteups("poison", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Web Cache Poisoning", hits[0].Writeup.Title)
	})

	t.Run("quotes cannot break the query", func(t *testing.T) {
		_, err := s.SearchWriteups(`heap" OR "`, 10)
		require.NoError(t, err)
	})

	t.Run("no matches", func(t *testing.T) {
		hits, err := s.SearchWriteups("kerberos", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}
