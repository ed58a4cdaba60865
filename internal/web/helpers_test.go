// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package web_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tier-app/tier/internal/auth"
	"github.com/tier-app/tier/internal/auth/authtest"
	"github.com/tier-app/tier/internal/team"
	"github.com/tier-app/tier/internal/web"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryTeams is a team.Repository over a map, joined to a user store for
// leader names.
type memoryTeams struct {
	mu    sync.Mutex
	users auth.UserRepository
	teams []*team.Team
}

func (m *memoryTeams) Create(_ context.Context, t *team.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.teams {
		if existing.Name == t.Name {
			return team.ErrDuplicateName
		}
	}
	cp := *t
	m.teams = append(m.teams, &cp)
	return nil
}

func (m *memoryTeams) GetByName(ctx context.Context, name string) (*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.Name == name {
			return m.withLeader(ctx, t), nil
		}
	}
	return nil, team.ErrNotFound
}

func (m *memoryTeams) List(ctx context.Context) ([]*team.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*team.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, m.withLeader(ctx, t))
	}
	return out, nil
}

func (m *memoryTeams) withLeader(ctx context.Context, t *team.Team) *team.Team {
	cp := *t
	if u, err := m.users.GetByID(ctx, t.LeaderID); err == nil {
		cp.LeaderName = u.DisplayName
	}
	return &cp
}

type app struct {
	server *httptest.Server
	users  *authtest.MemoryUserRepository
	pool   *auth.WorkerPool
}

func newService(t *testing.T, hasher auth.PasswordHasher, workers, queue int) (*auth.Service, *authtest.MemoryUserRepository, *auth.WorkerPool) {
	t.Helper()
	pool, err := auth.NewWorkerPool(workers, queue)
	require.NoError(t, err)
	hashes, err := auth.NewPooledHashService(pool, hasher)
	require.NoError(t, err)
	codec, err := auth.NewJWTSessionCodec([]byte(testSecret))
	require.NoError(t, err)
	users := authtest.NewMemoryUserRepository()
	svc, err := auth.NewService(users, hashes, codec)
	require.NoError(t, err)
	return svc, users, pool
}

func newApp(t *testing.T, hasher auth.PasswordHasher, workers, queue int, opts web.Options) *app {
	t.Helper()
	if hasher == nil {
		bc, err := auth.NewBcryptHasher(bcrypt.MinCost)
		require.NoError(t, err)
		hasher = bc
	}
	svc, users, pool := newService(t, hasher, workers, queue)

	teams, err := team.NewService(&memoryTeams{users: users}, nil)
	require.NoError(t, err)

	router, err := web.NewRouter(svc, teams, opts)
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		pool.Close()
	})
	return &app{server: srv, users: users, pool: pool}
}

// client is a browser-like client: it keeps cookies and does not follow redirects.
func (a *app) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type response struct {
	status int
	body   string
	header http.Header
}

func do(t *testing.T, c *http.Client, method, target string, form url.Values) response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(context.Background(), method, target, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: string(b), header: resp.Header}
}

func (a *app) get(t *testing.T, c *http.Client, path string) response {
	t.Helper()
	return do(t, c, http.MethodGet, a.server.URL+path, nil)
}

func (a *app) post(t *testing.T, c *http.Client, path string, form url.Values) response {
	t.Helper()
	return do(t, c, http.MethodPost, a.server.URL+path, form)
}

func registerForm(email, name, password string) url.Values {
	return url.Values{"email": {email}, "name": {name}, "password": {password}}
}

// stubAuth is an Authenticator whose every call fails with err.
type stubAuth struct{ err error }

func (s stubAuth) Register(context.Context, string, string, string) (*auth.User, string, error) {
	return nil, "", s.err
}

func (s stubAuth) Login(context.Context, string, string) (*auth.User, string, error) {
	return nil, "", s.err
}

func (s stubAuth) CurrentUser(context.Context, string) *auth.User { return nil }

// stubTeams fails every call with err.
type stubTeams struct{ err error }

func (s stubTeams) Create(context.Context, ulid.ULID, string, string) (*team.Team, error) {
	return nil, s.err
}
func (s stubTeams) Get(context.Context, string) (*team.Team, error) { return nil, s.err }
func (s stubTeams) List(context.Context) ([]*team.Team, error)      { return nil, s.err }

func newTestServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func mustBcrypt(t *testing.T) auth.PasswordHasher {
	t.Helper()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}
