// Package markdown renders content markdown to sanitized HTML with syntax
// highlighting, and to plain text for index summaries.
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		),
	),
	goldmark.WithRendererOptions(ghtml.WithHardWraps()),
)

var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// chroma emits spans with highlight classes; keep them.
	p.AllowAttrs("class").OnElements("span", "pre", "code", "img")
	return p
}()

// Render converts markdown to sanitized HTML.
func Render(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

var (
	htmlTags   = regexp.MustCompile(`<[^>]*>`)
	mdDecor    = regexp.MustCompile("[`*_#>~\\[\\]()!-]")
	whitespace = regexp.MustCompile(`\s+`)
)

// Plain strips markdown down to plain text, collapsed to single spaces.
func Plain(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		// Fall back to stripping decoration from the raw source.
		source = mdDecor.ReplaceAllString(source, " ")
		return strings.TrimSpace(whitespace.ReplaceAllString(source, " "))
	}
	text := htmlTags.ReplaceAllString(buf.String(), " ")
	// Goldmark escapes quotes and ampersands; undo that for plain text.
	text = html.UnescapeString(text)
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// Summary renders a plain-text digest of at most width runes, ending with an
// ellipsis when truncated. Truncation happens on a word boundary.
func Summary(source string, width int) string {
	text := Plain(source)
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	cut := string(runes[:width])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
