package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer(t *testing.T, ttl time.Duration) *Issuer {
	t.Helper()
	return NewIssuer([]byte("test-secret-please-do-not-reuse"), ttl)
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	i := testIssuer(t, 0)

	tok, err := i.VerifyToken(1234, "alice@lancaster.ac.uk")
	require.NoError(t, err)

	id, email, err := i.DecodeVerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), id)
	assert.Equal(t, "alice@lancaster.ac.uk", email)
}

func TestVerifyTokenExpiry(t *testing.T) {
	i := testIssuer(t, time.Nanosecond)

	tok, err := i.VerifyToken(1234, "alice@lancaster.ac.uk")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, _, err = i.DecodeVerifyToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	i := testIssuer(t, 0)

	tok, err := i.SessionToken(1234, "alice", true)
	require.NoError(t, err)

	sess, err := i.DecodeSessionToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), sess.DiscordID)
	assert.Equal(t, "alice", sess.Username)
	assert.True(t, sess.IsAdmin)
}

func TestTokenPurposesAreNotInterchangeable(t *testing.T) {
	i := testIssuer(t, 0)

	verify, err := i.VerifyToken(1234, "alice@lancaster.ac.uk")
	require.NoError(t, err)
	session, err := i.SessionToken(1234, "alice", false)
	require.NoError(t, err)

	_, err = i.DecodeSessionToken(verify)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = i.DecodeVerifyToken(session)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensFromAnotherSecretRejected(t *testing.T) {
	a := NewIssuer([]byte("secret-a"), 0)
	b := NewIssuer([]byte("secret-b"), 0)

	tok, err := a.VerifyToken(1234, "alice@lancaster.ac.uk")
	require.NoError(t, err)

	_, _, err = b.DecodeVerifyToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokensRejected(t *testing.T) {
	i := testIssuer(t, 0)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, _, err := i.DecodeVerifyToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestGenerateAndDecodeKey(t *testing.T) {
	encoded, err := GenerateKey()
	require.NoError(t, err)

	key, err := DecodeKey(encoded)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	other, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, encoded, other)
}
