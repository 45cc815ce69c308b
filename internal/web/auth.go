package web

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cyberguild/guildhall/pkg/models"
)

const stateCookie = "oauth_state"

// sessionMaxAge matches the session token lifetime.
const sessionMaxAge = 7 * 24 * 60 * 60

func (s *Server) handleAuthStart(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}
	secure := strings.HasPrefix(s.cfg.BaseURL, "https://")
	c.SetCookie(stateCookie, state, 600, "/", "", secure, true)
	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state))
}

func (s *Server) handleAuthCallback(c *gin.Context) {
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		s.renderError(c, http.StatusBadRequest, "OAuth state mismatch, start over.")
		return
	}

	tok, err := s.oauth.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		s.log.Warn("oauth exchange failed", zap.Error(err))
		s.renderError(c, http.StatusBadGateway, "Discord wouldn't let you in, try again.")
		return
	}

	discordID, err := s.fetchDiscordID(c, tok.AccessToken)
	if err != nil {
		s.log.Warn("discord identify failed", zap.Error(err))
		s.renderError(c, http.StatusBadGateway, "Couldn't read your Discord identity.")
		return
	}

	u, err := s.store.UserByID(discordID)
	if errors.Is(err, models.ErrNotFound) {
		s.renderError(c, http.StatusForbidden,
			"You're not registered. Verify your email with the bot first.")
		return
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	sessionTok, err := s.issuer.SessionToken(u.DiscordID, u.Username, u.IsAdmin)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Something went wrong, try again.")
		return
	}

	s.setSessionCookie(c, sessionTok, sessionMaxAge)
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) handleSignOut(c *gin.Context) {
	s.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

// fetchDiscordID calls the identify endpoint with the member's access token.
func (s *Server) fetchDiscordID(c *gin.Context, accessToken string) (int64, error) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, discordMeURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("identify returned %s", resp.Status)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return strconv.ParseInt(body.ID, 10, 64)
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
