package announce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseWebhookURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantID  string
		wantTok string
		wantErr bool
	}{
		{
			name:    "standard url",
			url:     "https://discord.com/api/webhooks/1234/abcdef",
			wantID:  "1234",
			wantTok: "abcdef",
		},
		{
			name:    "trailing slash",
			url:     "https://discord.com/api/webhooks/1234/abcdef/",
			wantID:  "1234",
			wantTok: "abcdef",
		},
		{
			name:    "not a webhook url",
			url:     "https://example.org/something",
			wantErr: true,
		},
		{
			name:    "missing token",
			url:     "https://discord.com/api/webhooks/1234",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, tok, err := parseWebhookURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantTok, tok)
		})
	}
}

func TestNewWithEmptyURL(t *testing.T) {
	a, err := New("", zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, a)

	// A nil announcer silently drops events.
	a.Create("Writeup", "Anything", "alice", "https://example.org")
	a.Solve("alice", "Anything", 100, "https://example.org")
}

func TestNewWithBadURL(t *testing.T) {
	_, err := New("https://example.org/nope", zap.NewNop())
	assert.Error(t, err)
}
