// Package web serves the guild site: writeups, blog posts, and challenges,
// with Discord OAuth sign-in for members.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/cyberguild/guildhall/internal/announce"
	"github.com/cyberguild/guildhall/internal/config"
	"github.com/cyberguild/guildhall/internal/store"
	"github.com/cyberguild/guildhall/internal/token"
)

// Discord OAuth2 endpoints; x/oauth2 ships no discord package.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

const discordMeURL = "https://discord.com/api/users/@me"

// Server is the guild web front-end.
type Server struct {
	cfg       config.Web
	oauth     *oauth2.Config
	store     *store.Store
	issuer    *token.Issuer
	announcer *announce.Announcer
	log       *zap.Logger
	router    *gin.Engine
	templates *template.Template
}

// Options carries the dependencies for New.
type Options struct {
	Config    config.Web
	OAuth     config.OAuth
	Store     *store.Store
	Issuer    *token.Issuer
	Announcer *announce.Announcer
	Log       *zap.Logger
}

// New builds the server and its route table.
func New(opts Options) (*Server, error) {
	s := &Server{
		cfg: opts.Config,
		oauth: &oauth2.Config{
			ClientID:     opts.OAuth.ClientID,
			ClientSecret: opts.OAuth.ClientSecret,
			RedirectURL:  opts.OAuth.RedirectURL,
			Scopes:       []string{"identify"},
			Endpoint:     discordEndpoint,
		},
		store:     opts.Store,
		issuer:    opts.Issuer,
		announcer: opts.Announcer,
		log:       opts.Log,
	}

	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(securityHeaders())
	r.Use(s.sessionAuth())

	r.StaticFS("/static", staticFiles())
	r.GET("/", s.handleIndex)
	r.GET("/plzauth", s.handlePlzAuth)
	r.GET("/baka", s.handleBaka)
	r.GET("/sign-out", s.handleSignOut)

	auth := r.Group("/auth")
	{
		auth.GET("/", s.handleAuthStart)
		auth.GET("/callback", s.handleAuthCallback)
		auth.GET("/logout", s.handleSignOut)
	}

	w := r.Group("/writeups")
	{
		w.GET("/", s.handleWriteupIndex)
		w.GET("/view/:slug", s.handleWriteupView)
		w.GET("/tag/:tag", s.handleWriteupTag)
		w.GET("/user/:username", s.handleWriteupUser)
		w.GET("/tags", s.handleWriteupTags)
		w.GET("/search", s.handleWriteupSearch)
		w.GET("/new", s.requireAuth, s.handleWriteupNew)
		w.POST("/new", s.requireAuth, s.handleWriteupCreate)
		w.GET("/edit/:id", s.requireAuth, s.handleWriteupEdit)
		w.POST("/edit/:id", s.requireAuth, s.handleWriteupUpdate)
		w.POST("/delete/:id", s.requireAuth, s.handleWriteupDelete)
	}

	b := r.Group("/blog")
	{
		b.GET("/", s.handlePostIndex)
		b.GET("/view/:slug", s.handlePostView)
		b.GET("/tag/:tag", s.handlePostTag)
		b.GET("/tags", s.handlePostTags)
		b.GET("/search", s.handlePostSearch)
		b.GET("/new", s.requireAdmin, s.handlePostNew)
		b.POST("/new", s.requireAdmin, s.handlePostCreate)
		b.GET("/edit/:id", s.requireAdmin, s.handlePostEdit)
		b.POST("/edit/:id", s.requireAdmin, s.handlePostUpdate)
		b.POST("/delete/:id", s.requireAdmin, s.handlePostDelete)
	}

	c := r.Group("/challenges")
	{
		c.GET("/", s.handleChallengeIndex)
		c.GET("/view/:slug", s.handleChallengeView)
		c.POST("/submit", s.requireAuth, s.handleFlagSubmit)
		c.GET("/new", s.requireAdmin, s.handleChallengeNew)
		c.POST("/new", s.requireAdmin, s.handleChallengeCreate)
		c.GET("/edit/:id", s.requireAdmin, s.handleChallengeEdit)
		c.POST("/edit/:id", s.requireAdmin, s.handleChallengeUpdate)
		c.POST("/delete/:id", s.requireAdmin, s.handleChallengeDelete)
	}

	s.router = r
	return s, nil
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("web listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
