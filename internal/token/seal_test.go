package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSealer(t *testing.T) *Sealer {
	t.Helper()
	key := make([]byte, 32)
	copy(key, "another-test-key-32-bytes-long!!")
	s, err := NewSealer(key)
	require.NoError(t, err)
	return s
}

func TestSealerRoundTrip(t *testing.T) {
	s := testSealer(t)

	sealed, err := s.Seal("alice@lancaster.ac.uk")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "lancaster")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "alice@lancaster.ac.uk", opened)
}

func TestSealerNonceIsFresh(t *testing.T) {
	s := testSealer(t)

	a, err := s.Seal("alice@lancaster.ac.uk")
	require.NoError(t, err)
	b, err := s.Seal("alice@lancaster.ac.uk")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealerRejectsTampering(t *testing.T) {
	s := testSealer(t)

	_, err := s.Open("not-a-sealed-value")
	assert.Error(t, err)
}

func TestDigestIsDeterministic(t *testing.T) {
	s := testSealer(t)

	a := s.Digest("alice@lancaster.ac.uk")
	b := s.Digest("alice@lancaster.ac.uk")
	c := s.Digest("bob@lancaster.ac.uk")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotContains(t, a, "lancaster")
}

func TestNewSealerKeyLength(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.Error(t, err)
}
