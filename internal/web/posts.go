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

type postForm struct {
	Title   string `form:"title" binding:"required,max=200"`
	Tags    string `form:"tags"`
	Content string `form:"content" binding:"required"`
}

func (f *postForm) tagList() []string {
	var tags []string
	for _, t := range strings.Split(f.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (s *Server) handlePostIndex(c *gin.Context) {
	ps, err := s.store.AllPosts()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load the blog.")
		return
	}

	entries := make([]indexEntry, 0, len(ps))
	for _, p := range ps {
		entries = append(entries, indexEntry{
			Title:   p.Title,
			Slug:    p.Slug,
			Tags:    p.Tags,
			Summary: markdown.Summary(p.Content, indexSummaryWidth),
			Date:    p.CreationDate,
		})
	}
	s.render(c, http.StatusOK, "posts_index.html", "Blog", groupByMonth(entries))
}

func (s *Server) handlePostTag(c *gin.Context) {
	tag := c.Param("tag")
	ps, err := s.store.PostsByTag(tag)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load the blog.")
		return
	}

	entries := make([]indexEntry, 0, len(ps))
	for _, p := range ps {
		entries = append(entries, indexEntry{
			Title:   p.Title,
			Slug:    p.Slug,
			Tags:    p.Tags,
			Summary: markdown.Summary(p.Content, indexSummaryWidth),
			Date:    p.CreationDate,
		})
	}
	s.render(c, http.StatusOK, "posts_index.html", "Blog posts tagged "+tag, groupByMonth(entries))
}

func (s *Server) handlePostTags(c *gin.Context) {
	tags, err := s.store.PostTags()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load tags.")
		return
	}
	s.render(c, http.StatusOK, "post_tags.html", "Blog tags", tags)
}

func (s *Server) handlePostSearch(c *gin.Context) {
	query := c.Query("search")
	matches, err := s.store.SearchPosts(query, 50)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Search fell over, sorry.")
		return
	}

	type hit struct {
		Title    string
		Slug     string
		Headline string
	}
	hits := make([]hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, hit{Title: m.Post.Title, Slug: m.Post.Slug, Headline: m.Headline})
	}
	s.render(c, http.StatusOK, "post_search.html", "Search: "+query, gin.H{
		"Query": query,
		"Hits":  hits,
	})
}

func (s *Server) handlePostView(c *gin.Context) {
	p, err := s.store.PostBySlug(c.Param("slug"))
	if errors.Is(err, models.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, "No such post.")
		return
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load the post.")
		return
	}

	rendered, err := markdown.Render(p.Content)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't render the post.")
		return
	}

	v := viewer(c)
	s.render(c, http.StatusOK, "post_view.html", p.Title, gin.H{
		"Post":     p,
		"Rendered": rendered,
		"Editable": v != nil && v.IsAdmin,
	})
}

func (s *Server) handlePostNew(c *gin.Context) {
	s.render(c, http.StatusOK, "post_form.html", "New post", gin.H{
		"Action": "/blog/new",
		"Post":   nil,
		"Tags":   "",
	})
}

func (s *Server) handlePostCreate(c *gin.Context) {
	var f postForm
	if err := c.ShouldBind(&f); err != nil {
		s.renderError(c, http.StatusBadRequest, "Title and content are required.")
		return
	}

	p := &models.Post{
		Title:   f.Title,
		Tags:    f.tagList(),
		Content: f.Content,
	}
	if err := s.store.CreatePost(p); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			s.renderError(c, http.StatusConflict, "A post with that title already exists.")
			return
		}
		s.renderError(c, http.StatusInternalServerError, "Couldn't save the post.")
		return
	}

	s.announcer.Create("Blog post", p.Title, viewer(c).Username, s.cfg.BaseURL+"/blog/view/"+p.Slug)
	c.Redirect(http.StatusFound, "/blog/view/"+p.Slug)
}

func (s *Server) handlePostEdit(c *gin.Context) {
	p, ok := s.postByIDParam(c)
	if !ok {
		return
	}
	s.render(c, http.StatusOK, "post_form.html", "Edit "+p.Title, gin.H{
		"Action": "/blog/edit/" + strconv.FormatInt(p.ID, 10),
		"Post":   p,
		"Tags":   strings.Join(p.Tags, ", "),
	})
}

func (s *Server) handlePostUpdate(c *gin.Context) {
	p, ok := s.postByIDParam(c)
	if !ok {
		return
	}

	var f postForm
	if err := c.ShouldBind(&f); err != nil {
		s.renderError(c, http.StatusBadRequest, "Title and content are required.")
		return
	}

	p.Title = f.Title
	p.Tags = f.tagList()
	p.Content = f.Content
	if err := s.store.UpdatePost(p); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			s.renderError(c, http.StatusConflict, "A post with that title already exists.")
			return
		}
		s.renderError(c, http.StatusInternalServerError, "Couldn't save the post.")
		return
	}

	s.announcer.Edit("Blog post", p.Title, viewer(c).Username, s.cfg.BaseURL+"/blog/view/"+p.Slug)
	c.Redirect(http.StatusFound, "/blog/view/"+p.Slug)
}

func (s *Server) handlePostDelete(c *gin.Context) {
	p, ok := s.postByIDParam(c)
	if !ok {
		return
	}
	if err := s.store.DeletePost(p.ID); err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't delete the post.")
		return
	}
	s.announcer.Delete("Blog post", p.Title, viewer(c).Username)
	c.Redirect(http.StatusFound, "/blog/")
}

func (s *Server) postByIDParam(c *gin.Context) (*models.Post, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, "Bad post id.")
		return nil, false
	}
	p, err := s.store.PostByID(id)
	if errors.Is(err, models.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, "No such post.")
		return nil, false
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load the post.")
		return nil, false
	}
	return p, true
}
