// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/tier-app/tier/internal/auth"
	"github.com/tier-app/tier/internal/logging"
	"github.com/tier-app/tier/internal/team"
)

const genericFault = "Something went wrong. Please try again."

// page is the data every template receives.
type page struct {
	Title string
	User  *auth.User
	Error string

	// Form values echoed back after a rejected submission.
	Email        string
	Name         string
	Introduction string

	Teams []*team.Team
	Team  *team.Team
}

func (h *handlers) render(c *gin.Context, status int, name string, p page) {
	p.User = CurrentUser(c)
	c.HTML(status, name, p)
}

func (h *handlers) fault(c *gin.Context, status int, msg string) {
	h.render(c, status, "fault.html", page{Title: "Error", Error: msg})
}

func (h *handlers) internalError(c *gin.Context, msg string, err error) {
	logging.LogError(c.Request.Context(), h.logger, msg, err)
	h.fault(c, http.StatusInternalServerError, genericFault)
}

func (h *handlers) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, 0, "/", "", h.cookieSecure, true)
}

func (h *handlers) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
}

func (h *handlers) index(c *gin.Context) {
	h.render(c, http.StatusOK, "index.html", page{})
}

func (h *handlers) registerForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", page{Title: "Register"})
}

func (h *handlers) register(c *gin.Context) {
	email, name := c.PostForm("email"), c.PostForm("name")

	_, token, err := h.authn.Register(c.Request.Context(), email, name, c.PostForm("password"))
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, auth.ErrDuplicateEmail):
			status = http.StatusConflict
		case !auth.IsUserFacing(err):
			h.internalError(c, "registration failed", err)
			return
		}
		h.render(c, status, "register.html", page{
			Title: "Register",
			Error: auth.UserMessage(err),
			Email: email,
			Name:  name,
		})
		return
	}

	h.setSession(c, token)
	c.Redirect(http.StatusFound, "/")
}

func (h *handlers) loginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", page{Title: "Log in"})
}

func (h *handlers) login(c *gin.Context) {
	email := c.PostForm("email")

	_, token, err := h.authn.Login(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, auth.ErrEmailNotFound), errors.Is(err, auth.ErrIncorrectPassword):
			status = http.StatusUnauthorized
		case !auth.IsUserFacing(err):
			h.internalError(c, "login failed", err)
			return
		}
		h.render(c, status, "login.html", page{
			Title: "Log in",
			Error: auth.UserMessage(err),
			Email: email,
		})
		return
	}

	h.setSession(c, token)
	c.Redirect(http.StatusFound, "/")
}

func (h *handlers) logout(c *gin.Context) {
	h.clearSession(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *handlers) dashboard(c *gin.Context) {
	h.render(c, http.StatusOK, "dashboard.html", page{Title: "Dashboard"})
}

func (h *handlers) lobby(c *gin.Context) {
	h.renderLobby(c, http.StatusOK, page{})
}

func (h *handlers) renderLobby(c *gin.Context, status int, p page) {
	teams, err := h.teams.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "list teams failed", err)
		return
	}
	p.Title = "Teams"
	p.Teams = teams
	h.render(c, status, "team_lobby.html", p)
}

func (h *handlers) teamHome(c *gin.Context) {
	t, err := h.teams.Get(c.Request.Context(), c.Query("name"))
	if err != nil {
		if errors.Is(err, team.ErrNotFound) {
			h.fault(c, http.StatusNotFound, team.ErrNotFound.Error())
			return
		}
		h.internalError(c, "get team failed", err)
		return
	}
	h.render(c, http.StatusOK, "team_home.html", page{Title: t.Name, Team: t})
}

func (h *handlers) createTeam(c *gin.Context) {
	name, intro := c.PostForm("name"), c.PostForm("introduction")

	t, err := h.teams.Create(c.Request.Context(), CurrentUser(c).ID, name, intro)
	if err != nil {
		msg := team.Message(err)
		if msg == "" {
			h.internalError(c, "create team failed", err)
			return
		}
		status := http.StatusBadRequest
		if errors.Is(err, team.ErrDuplicateName) {
			status = http.StatusConflict
		}
		h.renderLobby(c, status, page{Error: msg, Name: name, Introduction: intro})
		return
	}

	c.Redirect(http.StatusFound, "/team/home?name="+url.QueryEscape(t.Name))
}
