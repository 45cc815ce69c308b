package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cyberguild/guildhall/internal/markdown"
	"github.com/cyberguild/guildhall/pkg/models"
)

const indexSummaryWidth = 300

// writeupForm binds the new/edit writeup form. Tags arrive as a
// comma-separated line.
type writeupForm struct {
	Title   string `form:"title" binding:"required,max=200"`
	Tags    string `form:"tags"`
	Content string `form:"content" binding:"required"`
	Private bool   `form:"private"`
}

func (f *writeupForm) tagList() []string {
	var tags []string
	for _, t := range strings.Split(f.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (s *Server) handleWriteupIndex(c *gin.Context) {
	ws, err := s.store.AllWriteups()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load writeups.")
		return
	}
	s.renderWriteupList(c, "Writeups", ws)
}

func (s *Server) handleWriteupTag(c *gin.Context) {
	tag := c.Param("tag")
	ws, err := s.store.WriteupsByTag(tag)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load writeups.")
		return
	}
	s.renderWriteupList(c, "Writeups tagged "+tag, ws)
}

func (s *Server) handleWriteupUser(c *gin.Context) {
	username := c.Param("username")
	ws, err := s.store.WriteupsByAuthor(username)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load writeups.")
		return
	}
	s.renderWriteupList(c, "Writeups by "+username, ws)
}

func (s *Server) renderWriteupList(c *gin.Context, title string, ws []*models.Writeup) {
	authed := viewer(c) != nil
	entries := make([]indexEntry, 0, len(ws))
	for _, w := range ws {
		if !w.VisibleTo(authed) {
			continue
		}
		entries = append(entries, indexEntry{
			Title:   w.Title,
			Slug:    w.Slug,
			Author:  w.AuthorName,
			Tags:    w.Tags,
			Summary: markdown.Summary(w.Content, indexSummaryWidth),
			Date:    w.CreationDate,
		})
	}
	s.render(c, http.StatusOK, "writeups_index.html", title, entries)
}

func (s *Server) handleWriteupTags(c *gin.Context) {
	tags, err := s.store.WriteupTags()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load tags.")
		return
	}
	s.render(c, http.StatusOK, "writeup_tags.html", "Writeup tags", tags)
}

func (s *Server) handleWriteupSearch(c *gin.Context) {
	query := c.Query("search")
	matches, err := s.store.SearchWriteups(query, 50)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Search fell over, sorry.")
		return
	}

	authed := viewer(c) != nil
	type hit struct {
		Title    string
		Slug     string
		Author   string
		Headline string
	}
	var hits []hit
	for _, m := range matches {
		if !m.Writeup.VisibleTo(authed) {
			continue
		}
		hits = append(hits, hit{
			Title:    m.Writeup.Title,
			Slug:     m.Writeup.Slug,
			Author:   m.Writeup.AuthorName,
			Headline: m.Headline,
		})
	}
	s.render(c, http.StatusOK, "writeup_search.html", "Search: "+query, gin.H{
		"Query": query,
		"Hits":  hits,
	})
}

func (s *Server) handleWriteupView(c *gin.Context) {
	w, err := s.store.WriteupBySlug(c.Param("slug"))
	if errors.Is(err, models.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, "No such writeup.")
		return
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load the writeup.")
		return
	}

	v := viewer(c)
	if !w.VisibleTo(v != nil) {
		s.renderError(c, http.StatusNotFound, "No such writeup.")
		return
	}

	rendered, err := markdown.Render(w.Content)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't render the writeup.")
		return
	}

	editable := v != nil && w.EditableBy(v.DiscordID, v.IsAdmin)
	s.render(c, http.StatusOK, "writeup_view.html", w.Title, gin.H{
		"Writeup":  w,
		"Rendered": rendered,
		"Editable": editable,
	})
}

func (s *Server) handleWriteupNew(c *gin.Context) {
	s.render(c, http.StatusOK, "writeup_form.html", "New writeup", gin.H{
		"Action":  "/writeups/new",
		"Writeup": nil,
		"Tags":    "",
	})
}

func (s *Server) handleWriteupCreate(c *gin.Context) {
	var f writeupForm
	if err := c.ShouldBind(&f); err != nil {
		s.renderError(c, http.StatusBadRequest, "Title and content are required.")
		return
	}

	w := &models.Writeup{
		AuthorID: viewer(c).DiscordID,
		Title:    f.Title,
		Tags:     f.tagList(),
		Content:  f.Content,
		Private:  f.Private,
	}
	if err := s.store.CreateWriteup(w); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			s.renderError(c, http.StatusConflict, "A writeup with that title already exists.")
			return
		}
		s.renderError(c, http.StatusInternalServerError, "Couldn't save the writeup.")
		return
	}

	v := viewer(c)
	s.announcer.Create("Writeup", w.Title, v.Username, s.cfg.BaseURL+"/writeups/view/"+w.Slug)
	c.Redirect(http.StatusFound, "/writeups/view/"+w.Slug)
}

func (s *Server) handleWriteupEdit(c *gin.Context) {
	w, ok := s.editableWriteup(c)
	if !ok {
		return
	}
	s.render(c, http.StatusOK, "writeup_form.html", "Edit "+w.Title, gin.H{
		"Action":  "/writeups/edit/" + strconv.FormatInt(w.ID, 10),
		"Writeup": w,
		"Tags":    strings.Join(w.Tags, ", "),
	})
}

func (s *Server) handleWriteupUpdate(c *gin.Context) {
	w, ok := s.editableWriteup(c)
	if !ok {
		return
	}

	var f writeupForm
	if err := c.ShouldBind(&f); err != nil {
		s.renderError(c, http.StatusBadRequest, "Title and content are required.")
		return
	}

	w.Title = f.Title
	w.Tags = f.tagList()
	w.Content = f.Content
	w.Private = f.Private
	if err := s.store.UpdateWriteup(w); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			s.renderError(c, http.StatusConflict, "A writeup with that title already exists.")
			return
		}
		s.renderError(c, http.StatusInternalServerError, "Couldn't save the writeup.")
		return
	}

	s.announcer.Edit("Writeup", w.Title, viewer(c).Username, s.cfg.BaseURL+"/writeups/view/"+w.Slug)
	c.Redirect(http.StatusFound, "/writeups/view/"+w.Slug)
}

func (s *Server) handleWriteupDelete(c *gin.Context) {
	w, ok := s.editableWriteup(c)
	if !ok {
		return
	}
	if err := s.store.DeleteWriteup(w.ID); err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't delete the writeup.")
		return
	}
	s.announcer.Delete("Writeup", w.Title, viewer(c).Username)
	c.Redirect(http.StatusFound, "/writeups/")
}

// editableWriteup loads the :id writeup and checks the viewer may modify
// it, rendering the error page otherwise.
func (s *Server) editableWriteup(c *gin.Context) (*models.Writeup, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, "Bad writeup id.")
		return nil, false
	}

	w, err := s.store.WriteupByID(id)
	if errors.Is(err, models.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, "No such writeup.")
		return nil, false
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load the writeup.")
		return nil, false
	}

	v := viewer(c)
	if !w.EditableBy(v.DiscordID, v.IsAdmin) {
		s.renderError(c, http.StatusForbidden, "That's not yours to touch.")
		return nil, false
	}
	return w, true
}
