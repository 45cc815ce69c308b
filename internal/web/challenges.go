package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cyberguild/guildhall/internal/markdown"
	"github.com/cyberguild/guildhall/pkg/models"
)

type challengeForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Content     string `form:"content" binding:"required"`
	Flag        string `form:"flag" binding:"required"`
	Points      int    `form:"points" binding:"min=0"`
	Hidden      bool   `form:"hidden"`
	Depreciated bool   `form:"depreciated"`
}

func (s *Server) handleChallengeIndex(c *gin.Context) {
	cs, err := s.store.ChallengesWithSolves()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load challenges.")
		return
	}

	admin := viewer(c) != nil && viewer(c).IsAdmin
	entries := make([]indexEntry, 0, len(cs))
	for _, cw := range cs {
		if cw.Challenge.Hidden && !admin {
			continue
		}
		entries = append(entries, indexEntry{
			Title:   cw.Challenge.Title,
			Slug:    cw.Challenge.Slug,
			Summary: markdown.Summary(cw.Challenge.Content, indexSummaryWidth),
			Date:    cw.Challenge.CreationDate,
			Solves:  cw.Solves,
			Points:  cw.Challenge.Points,
		})
	}
	s.render(c, http.StatusOK, "challenges_index.html", "Challenges", groupByMonth(entries))
}

func (s *Server) handleChallengeView(c *gin.Context) {
	ch, err := s.store.ChallengeBySlug(c.Param("slug"))
	if errors.Is(err, models.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, "No such challenge.")
		return
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load the challenge.")
		return
	}

	v := viewer(c)
	admin := v != nil && v.IsAdmin
	if ch.Hidden && !admin {
		s.renderError(c, http.StatusNotFound, "No such challenge.")
		return
	}

	solves, err := s.store.SolveCountFor(ch.ID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load the challenge.")
		return
	}

	rendered, err := markdown.Render(ch.Content)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't render the challenge.")
		return
	}

	s.render(c, http.StatusOK, "challenge_view.html", ch.Title, gin.H{
		"Challenge": ch,
		"Rendered":  rendered,
		"Solves":    solves,
		"Editable":  admin,
		"CanSubmit": v != nil,
		"Result":    c.Query("result"),
	})
}

// handleFlagSubmit awards a claimed flag and bounces back to the challenge
// page with the outcome in the query string.
func (s *Server) handleFlagSubmit(c *gin.Context) {
	var f struct {
		Flag string `form:"flag" binding:"required"`
		Slug string `form:"slug" binding:"required"`
	}
	if err := c.ShouldBind(&f); err != nil {
		s.renderError(c, http.StatusBadRequest, "Give me a flag to check.")
		return
	}

	back := "/challenges/view/" + f.Slug
	v := viewer(c)

	ch, err := s.store.ClaimFlag(v.DiscordID, f.Flag)
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.Redirect(http.StatusFound, back+"?result=wrong")
		return
	case errors.Is(err, models.ErrAlreadyClaimed):
		c.Redirect(http.StatusFound, back+"?result=claimed")
		return
	case err != nil:
		s.renderError(c, http.StatusInternalServerError, "Couldn't check the flag.")
		return
	}

	s.announcer.Solve(v.Username, ch.Title, ch.Points, s.cfg.BaseURL+"/challenges/view/"+ch.Slug)
	c.Redirect(http.StatusFound, "/challenges/view/"+ch.Slug+"?result=solved")
}

func (s *Server) handleChallengeNew(c *gin.Context) {
	s.render(c, http.StatusOK, "challenge_form.html", "New challenge", gin.H{
		"Action":    "/challenges/new",
		"Challenge": nil,
	})
}

func (s *Server) handleChallengeCreate(c *gin.Context) {
	var f challengeForm
	if err := c.ShouldBind(&f); err != nil {
		s.renderError(c, http.StatusBadRequest, "Title, content, and flag are required.")
		return
	}

	ch := &models.Challenge{
		Title:       f.Title,
		Content:     f.Content,
		Flag:        f.Flag,
		Points:      f.Points,
		Hidden:      f.Hidden,
		Depreciated: f.Depreciated,
	}
	if err := s.store.CreateChallenge(ch); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			s.renderError(c, http.StatusConflict, "A challenge with that title or flag already exists.")
			return
		}
		s.renderError(c, http.StatusInternalServerError, "Couldn't save the challenge.")
		return
	}

	if !ch.Hidden {
		s.announcer.Create("Challenge", ch.Title, viewer(c).Username, s.cfg.BaseURL+"/challenges/view/"+ch.Slug)
	}
	c.Redirect(http.StatusFound, "/challenges/view/"+ch.Slug)
}

func (s *Server) handleChallengeEdit(c *gin.Context) {
	ch, ok := s.challengeByIDParam(c)
	if !ok {
		return
	}
	s.render(c, http.StatusOK, "challenge_form.html", "Edit "+ch.Title, gin.H{
		"Action":    "/challenges/edit/" + strconv.FormatInt(ch.ID, 10),
		"Challenge": ch,
	})
}

func (s *Server) handleChallengeUpdate(c *gin.Context) {
	ch, ok := s.challengeByIDParam(c)
	if !ok {
		return
	}

	var f challengeForm
	if err := c.ShouldBind(&f); err != nil {
		s.renderError(c, http.StatusBadRequest, "Title, content, and flag are required.")
		return
	}

	wasHidden := ch.Hidden
	ch.Title = f.Title
	ch.Content = f.Content
	ch.Flag = f.Flag
	ch.Points = f.Points
	ch.Hidden = f.Hidden
	ch.Depreciated = f.Depreciated
	if err := s.store.UpdateChallenge(ch); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			s.renderError(c, http.StatusConflict, "A challenge with that title or flag already exists.")
			return
		}
		s.renderError(c, http.StatusInternalServerError, "Couldn't save the challenge.")
		return
	}

	// Unhiding counts as publishing.
	if wasHidden && !ch.Hidden {
		s.announcer.Create("Challenge", ch.Title, viewer(c).Username, s.cfg.BaseURL+"/challenges/view/"+ch.Slug)
	} else if !ch.Hidden {
		s.announcer.Edit("Challenge", ch.Title, viewer(c).Username, s.cfg.BaseURL+"/challenges/view/"+ch.Slug)
	}
	c.Redirect(http.StatusFound, "/challenges/view/"+ch.Slug)
}

func (s *Server) handleChallengeDelete(c *gin.Context) {
	ch, ok := s.challengeByIDParam(c)
	if !ok {
		return
	}
	if err := s.store.DeleteChallenge(ch.ID); err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't delete the challenge.")
		return
	}
	s.announcer.Delete("Challenge", ch.Title, viewer(c).Username)
	c.Redirect(http.StatusFound, "/challenges/")
}

func (s *Server) challengeByIDParam(c *gin.Context) (*models.Challenge, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, "Bad challenge id.")
		return nil, false
	}
	ch, err := s.store.ChallengeByID(id)
	if errors.Is(err, models.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, "No such challenge.")
		return nil, false
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Couldn't load the challenge.")
		return nil, false
	}
	return ch, true
}
