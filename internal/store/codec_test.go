package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/cyberguild/guildhall/internal/token"
	"github.com/cyberguild/guildhall/pkg/models"
)

func TestSealedEmails(t *testing.T) {
	key := make([]byte, 32)
	copy(key, "0123456789abcdef0123456789abcdef")
	sealer, err := token.NewSealer(key)
	require.NoError(t, err)

	dir := t.TempDir()
	s, err := Open(dir, WithEmailCodec(sealer))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.CreateUser(&models.User{
		DiscordID: 100,
		Username:  "alice",
		Email:     "alice@lancaster.ac.uk",
	}))

	t.Run("reads get the plaintext back", func(t *testing.T) {
		got, err := s.UserByID(100)
		require.NoError(t, err)
		assert.Equal(t, "alice@lancaster.ac.uk", got.Email)

		byEmail, err := s.UserByEmail("alice@lancaster.ac.uk")
		require.NoError(t, err)
		assert.Equal(t, int64(100), byEmail.DiscordID)
	})

	t.Run("plaintext never reaches the file", func(t *testing.T) {
		db, err := sql.Open("sqlite", filepath.Join(dir, "guildhall.db"))
		require.NoError(t, err)
		defer db.Close()

		var stored string
		require.NoError(t, db.QueryRow("SELECT email FROM users WHERE discord_id = 100").Scan(&stored))
		assert.NotEqual(t, "alice@lancaster.ac.uk", stored)
		assert.NotContains(t, stored, "lancaster")
	})
}
