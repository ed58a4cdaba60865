// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

// Package web serves tier's HTML pages with gin.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/tier-app/tier/internal/auth"
	"github.com/tier-app/tier/internal/team"
)

//go:embed templates/*.html
var templatesFS embed.FS

// DefaultCookieName is the session cookie used when Options.CookieName is empty.
const DefaultCookieName = "tier_user"

// Authenticator is the account API the pages need. *auth.Service implements it.
type Authenticator interface {
	Register(ctx context.Context, email, displayName, password string) (*auth.User, string, error)
	Login(ctx context.Context, email, password string) (*auth.User, string, error)
	CurrentUser(ctx context.Context, token string) *auth.User
}

// Teams is the team API the pages need. *team.Service implements it.
type Teams interface {
	Create(ctx context.Context, leader ulid.ULID, name, introduction string) (*team.Team, error)
	Get(ctx context.Context, name string) (*team.Team, error)
	List(ctx context.Context) ([]*team.Team, error)
}

// RequestObserver counts served requests.
type RequestObserver interface {
	ObserveRequest(route, method string, status int)
}

// Options configures the router.
type Options struct {
	CookieName   string
	CookieSecure bool
	Logger       *slog.Logger
	Observer     RequestObserver
}

type handlers struct {
	authn        Authenticator
	teams        Teams
	cookieName   string
	cookieSecure bool
	logger       *slog.Logger
}

// NewRouter builds the gin engine with every route and middleware installed.
// Call gin.SetMode before NewRouter to pick debug or release behavior.
func NewRouter(authn Authenticator, teams Teams, opts Options) (*gin.Engine, error) {
	if authn == nil {
		return nil, oops.Errorf("authenticator is required")
	}
	if teams == nil {
		return nil, oops.Errorf("team service is required")
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, oops.Code("WEB_TEMPLATES_INVALID").Wrap(err)
	}

	h := &handlers{
		authn:        authn,
		teams:        teams,
		cookieName:   opts.CookieName,
		cookieSecure: opts.CookieSecure,
		logger:       opts.Logger.With("component", "web"),
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(requestLog(h.logger))
	if opts.Observer != nil {
		r.Use(observe(opts.Observer))
	}
	r.Use(h.identify)
	r.NoRoute(func(c *gin.Context) {
		h.fault(c, http.StatusNotFound, "Page Not Found")
	})

	r.GET("/", h.index)

	authGroup := r.Group("/auth")
	authGroup.GET("/register", h.registerForm)
	authGroup.POST("/register", h.register)
	authGroup.GET("/login", h.loginForm)
	authGroup.POST("/login", h.login)
	authGroup.GET("/logout", h.logout)
	authGroup.POST("/logout", h.logout)

	members := r.Group("/", h.requireLogin)
	members.GET("/dashboard", h.dashboard)
	members.GET("/team/lobby", h.lobby)
	members.GET("/team/home", h.teamHome)
	members.POST("/team/create", h.createTeam)

	return r, nil
}
