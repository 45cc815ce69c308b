package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedEmail(t *testing.T) {
	m := New(Config{AllowedDomains: []string{"lancaster.ac.uk", "live.lancs.ac.uk"}})

	tests := []struct {
		email string
		want  bool
	}{
		{"a.person1@lancaster.ac.uk", true},
		{"a.person1@live.lancs.ac.uk", true},
		{"a.person1@gmail.com", false},
		{"a.person1@lancaster.ac.uk.evil.com", false},
		{"", false},
		{"lancaster.ac.uk", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, m.AllowedEmail(tt.email))
		})
	}
}

func TestAllowedEmailNoDomainsConfigured(t *testing.T) {
	m := New(Config{})
	assert.False(t, m.AllowedEmail("anyone@anywhere.org"))
}

func TestVerifyBody(t *testing.T) {
	body := VerifyBody("tok-123")
	assert.Contains(t, body, "tok-123")
	assert.Contains(t, body, "verify complete tok-123")
	assert.Contains(t, body, "30 minutes")
}

func TestReminderBody(t *testing.T) {
	body := ReminderBody()
	assert.Contains(t, body, "removed in a week")
}
