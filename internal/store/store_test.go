package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cyberguild/guildhall/pkg/models"
)

// openTestStore opens a store against a throwaway directory.
func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedUser registers a user with sensible defaults.
func seedUser(t *testing.T, s *Store, id int64, username string) *models.User {
	t.Helper()
	u := &models.User{
		DiscordID:  id,
		Username:   username,
		Email:      username + "@lancaster.ac.uk",
		JoinedAt:   time.Now().UTC(),
		LastTalked: time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(u))
	return u
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)

	// All tables exist and are empty.
	users, err := s.AllUsers()
	require.NoError(t, err)
	require.Empty(t, users)

	ws, err := s.AllWriteups()
	require.NoError(t, err)
	require.Empty(t, ws)

	ms, err := s.AllMachines()
	require.NoError(t, err)
	require.Empty(t, ms)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestClosedStoreRefusesQueries(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.AllUsers()
	require.ErrorIs(t, err, models.ErrStoreClosed)
}
