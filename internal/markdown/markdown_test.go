package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("basic markdown", func(t *testing.T) {
		html, err := Render("# Hello\n\nSome **bold** text.")
		require.NoError(t, err)
		assert.Contains(t, string(html), "<h1")
		assert.Contains(t, string(html), "<strong>bold</strong>")
	})

	t.Run("fenced code keeps highlight classes", func(t *testing.T) {
		html, err := Render("```go\nfunc main() {}\n```")
		require.NoError(t, err)
		assert.Contains(t, string(html), "<pre")
		assert.Contains(t, string(html), "class=")
	})

	t.Run("script tags are stripped", func(t *testing.T) {
		html, err := Render("hello <script>alert(1)</script> world")
		require.NoError(t, err)
		assert.NotContains(t, string(html), "<script")
	})

	t.Run("event handlers are stripped", func(t *testing.T) {
		html, err := Render(`<img src="x" onerror="alert(1)">`)
		require.NoError(t, err)
		assert.NotContains(t, string(html), "onerror")
	})
}

func TestPlain(t *testing.T) {
	got := Plain("# Heading\n\nSome **bold** text with a [link](https://example.org).")
	assert.NotContains(t, got, "<")
	assert.Contains(t, got, "Heading")
	assert.Contains(t, got, "bold")
	assert.Contains(t, got, "link")
}

func TestPlainUnescapesEntities(t *testing.T) {
	got := Plain(`it's "quoted" & fine`)
	assert.Equal(t, `it's "quoted" & fine`, got)
	assert.NotContains(t, got, "&quot;")
	assert.NotContains(t, got, "&amp;")
	assert.NotContains(t, got, "&#39;")
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name   string
		source string
		width  int
		check  func(t *testing.T, got string)
	}{
		{
			name:   "short text untouched",
			source: "A short writeup.",
			width:  300,
			check: func(t *testing.T, got string) {
				assert.Equal(t, "A short writeup.", got)
			},
		},
		{
			name:   "long text truncated with ellipsis",
			source: strings.Repeat("word ", 200),
			width:  50,
			check: func(t *testing.T, got string) {
				assert.True(t, strings.HasSuffix(got, "..."), "got %q", got)
				assert.LessOrEqual(t, len(got), 60)
			},
		},
		{
			name:   "cuts on a word boundary",
			source: "alpha beta gamma delta epsilon zeta eta theta",
			width:  20,
			check: func(t *testing.T, got string) {
				trimmed := strings.TrimSuffix(got, "...")
				for _, w := range strings.Fields(trimmed) {
					assert.Contains(t, "alpha beta gamma delta epsilon zeta eta theta", w)
				}
			},
		},
		{
			name:   "markdown is flattened",
			source: "Some **bold** and `code`.",
			width:  300,
			check: func(t *testing.T, got string) {
				assert.NotContains(t, got, "**")
				assert.NotContains(t, got, "<strong>")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Summary(tt.source, tt.width))
		})
	}
}
