package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

func staticFiles() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func (s *Server) loadTemplates() error {
	t, err := template.New("").Funcs(template.FuncMap{
		"date":  func(t time.Time) string { return t.Format("2 Jan 2006") },
		"month": func(m time.Month) string { return m.String() },
		"join":  strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return err
	}
	s.templates = t
	return nil
}

// page is the data envelope every template receives.
type page struct {
	Title  string
	Viewer any
	Data   any
	Error  string
}

func (s *Server) render(c *gin.Context, status int, name, title string, data any) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	p := page{Title: title, Viewer: viewer(c), Data: data}
	if err := s.templates.ExecuteTemplate(c.Writer, name, p); err != nil {
		s.log.Error("template render failed", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) renderError(c *gin.Context, status int, msg string) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	p := page{Title: "Error", Viewer: viewer(c), Error: msg}
	if err := s.templates.ExecuteTemplate(c.Writer, "error.html", p); err != nil {
		s.log.Error("template render failed", zap.String("template", "error.html"), zap.Error(err))
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	s.render(c, http.StatusOK, "index.html", "Guildhall", nil)
}

func (s *Server) handlePlzAuth(c *gin.Context) {
	s.render(c, http.StatusOK, "plzauth.html", "Sign in required", nil)
}

func (s *Server) handleBaka(c *gin.Context) {
	s.render(c, http.StatusOK, "baka.html", "Admins only", nil)
}

// monthGroup collects index entries published in one calendar month.
type monthGroup struct {
	Year  int
	Month time.Month
	Items []indexEntry
}

// indexEntry is one row on a listing page.
type indexEntry struct {
	Title   string
	Slug    string
	Author  string
	Tags    []string
	Summary string
	Date    time.Time
	Solves  int
	Points  int
}

// groupByMonth buckets entries by publication month, newest first. Entries
// must already be sorted newest first.
func groupByMonth(entries []indexEntry) []monthGroup {
	var groups []monthGroup
	for _, e := range entries {
		y, m := e.Date.Year(), e.Date.Month()
		if len(groups) == 0 || groups[len(groups)-1].Year != y || groups[len(groups)-1].Month != m {
			groups = append(groups, monthGroup{Year: y, Month: m})
		}
		groups[len(groups)-1].Items = append(groups[len(groups)-1].Items, e)
	}
	return groups
}
