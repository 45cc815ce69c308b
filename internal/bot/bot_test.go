package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrectEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{
			name:  "surname initial number",
			email: "smithj2@lancaster.ac.uk",
			want:  "j.smith2@lancaster.ac.uk",
		},
		{
			name:  "no trailing number",
			email: "smithj@lancaster.ac.uk",
			want:  "j.smith@lancaster.ac.uk",
		},
		{
			name:  "already dotted",
			email: "j.smith2@lancaster.ac.uk",
			want:  "",
		},
		{
			name:  "not an email",
			email: "smithj2",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, correctEmail(tt.email))
		})
	}
}

func TestStripPrefix(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		wantOK  bool
	}{
		{name: "plain prefix", content: "!help", want: "help", wantOK: true},
		{name: "long form", content: "L!help", want: "help", wantOK: true},
		{name: "prefix with args", content: "!writeup Space Bulb", want: "writeup Space Bulb", wantOK: true},
		{name: "no prefix", content: "hello there", wantOK: false},
		{name: "prefix mid-message", content: "say !help", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := stripPrefix(tt.content, "!")
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCommandMatching(t *testing.T) {
	b := &Bot{}
	b.addCommand(&command{name: "writeup"})
	b.addCommand(&command{name: "writeup delete"})
	b.addCommand(&command{name: "verify begin"})

	tests := []struct {
		invocation string
		wantName   string
		wantRest   string
	}{
		{"writeup Space Bulb", "writeup", "Space Bulb"},
		{"writeup delete Space Bulb", "writeup delete", "Space Bulb"},
		{"writeup deleted", "writeup", "deleted"},
		{"verify begin a@b.c", "verify begin", "a@b.c"},
		{"writeup", "writeup", ""},
		{"nonsense", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.invocation, func(t *testing.T) {
			cmd, rest := b.match(tt.invocation)
			if tt.wantName == "" {
				assert.Nil(t, cmd)
				return
			}
			assert.NotNil(t, cmd)
			assert.Equal(t, tt.wantName, cmd.name)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"Member", "Points"}, [][3]string{
		{"1. alice", "300"},
		{"2. somebody-long", "5"},
	})

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	assert.Len(t, lines, 3)
	// Columns align: every line shares the points column offset.
	assert.Equal(t, strings.Index(lines[0], "Points"), strings.Index(lines[1], "300"))
	assert.Equal(t, strings.Index(lines[0], "Points"), strings.Index(lines[2], "5"))
}

func TestTodoSummary(t *testing.T) {
	assert.Equal(t, "one line", todoSummary("one line"))
	assert.Equal(t, "first ...", todoSummary("first\nsecond\nthird"))
}
