// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tier-app/tier/internal/auth"
)

const userKey = "tier.user"

// CurrentUser returns the user the request's session cookie identifies, or nil
// for an anonymous request.
func CurrentUser(c *gin.Context) *auth.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*auth.User)
	return user
}

// identify resolves the session cookie once per request. Any cookie that does
// not name a live user leaves the request anonymous.
func (h *handlers) identify(c *gin.Context) {
	if token, err := c.Cookie(h.cookieName); err == nil && token != "" {
		if user := h.authn.CurrentUser(c.Request.Context(), token); user != nil {
			c.Set(userKey, user)
		}
	}
	c.Next()
}

func (h *handlers) requireLogin(c *gin.Context) {
	if CurrentUser(c) == nil {
		h.fault(c, http.StatusUnauthorized, "Please Login Firstly!")
		c.Abort()
		return
	}
	c.Next()
}

func requestLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func observe(o RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		o.ObserveRequest(c.FullPath(), c.Request.Method, c.Writer.Status())
	}
}
