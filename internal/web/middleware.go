package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cyberguild/guildhall/internal/token"
)

const sessionCookie = "token"

const viewerKey = "guildhall_viewer"

// securityHeaders mirrors the hardening headers the site has always sent.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; img-src *; style-src 'self' 'unsafe-inline'")
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// sessionAuth resolves the viewer from the session cookie or a ?token=
// query parameter (used by links the bot DMs out). Invalid tokens leave the
// request anonymous rather than failing it.
func (s *Server) sessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if raw == "" {
			raw, _ = c.Cookie(sessionCookie)
		}
		if raw != "" {
			if sess, err := s.issuer.DecodeSessionToken(raw); err == nil {
				c.Set(viewerKey, sess)
			}
		}
		c.Next()
	}
}

// viewer returns the signed-in session, or nil for anonymous visitors.
func viewer(c *gin.Context) *token.Session {
	v, ok := c.Get(viewerKey)
	if !ok {
		return nil
	}
	return v.(*token.Session)
}

func (s *Server) requireAuth(c *gin.Context) {
	if viewer(c) == nil {
		c.Redirect(http.StatusFound, "/plzauth")
		c.Abort()
	}
}

func (s *Server) requireAdmin(c *gin.Context) {
	v := viewer(c)
	if v == nil {
		c.Redirect(http.StatusFound, "/plzauth")
		c.Abort()
		return
	}
	if !v.IsAdmin {
		c.Redirect(http.StatusFound, "/baka")
		c.Abort()
	}
}

// setSessionCookie installs the session token for the site, marking it
// Secure when the site is served over https.
func (s *Server) setSessionCookie(c *gin.Context, tok string, maxAge int) {
	secure := strings.HasPrefix(s.cfg.BaseURL, "https://")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, tok, maxAge, "/", "", secure, true)
}
