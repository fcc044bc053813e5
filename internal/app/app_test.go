package app

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/florianilch/taskconsole/internal/api"
	"github.com/florianilch/taskconsole/internal/devserver"
	"github.com/florianilch/taskconsole/internal/resources"
	"github.com/florianilch/taskconsole/internal/tokenstore"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNavigator struct {
	mu     sync.Mutex
	visits []string
}

func (n *recordingNavigator) ToLogin(context.Context) { n.record("login") }
func (n *recordingNavigator) ToHome(context.Context)  { n.record("home") }

func (n *recordingNavigator) record(view string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visits = append(n.visits, view)
}

func (n *recordingNavigator) Visits() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.visits...)
}

type harness struct {
	app     *App
	clock   *testClock
	nav     *recordingNavigator
	durable *tokenstore.MemoryStore

	mu      sync.Mutex
	expired []error
}

func (h *harness) Expired() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.expired...)
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		clock:   &testClock{now: time.Now().Truncate(time.Second)},
		nav:     &recordingNavigator{},
		durable: tokenstore.NewMemoryStore(),
	}

	server, err := devserver.New(
		devserver.WithSigningKey([]byte("0123456789abcdef0123456789abcdef")),
		devserver.WithTokenTTL(time.Minute, time.Hour),
		devserver.WithAdmin("admin", "secret1"),
		devserver.WithClock(h.clock.Now),
	)
	require.NoError(t, err)
	srv := httptest.NewServer(server)
	t.Cleanup(srv.Close)

	cfg, err := Default()
	require.NoError(t, err)
	cfg.Backend.BaseURL = srv.URL
	cfg.Auth = AuthConfig{Storage: TokenStorageTypeMemory}

	h.app, err = New(t.Context(), cfg,
		WithTokenStore(h.durable),
		WithNavigator(h.nav),
		WithSessionExpiredHandler(func(_ context.Context, err error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.expired = append(h.expired, err)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.app.Close() })

	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.app.API.Login(t.Context(), api.Credentials{Username: "admin", Password: "secret1"})
	require.NoError(t, err)
}

func TestLoginThenProfile(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, []string{"login"}, h.nav.Visits())

	h.login(t)
	assert.Equal(t, []string{"login", "home"}, h.nav.Visits())

	user, err := h.app.Users.Profile(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	stored, err := h.durable.Read(t.Context())
	require.NoError(t, err)
	assert.Contains(t, stored, h.app.Session.Get().AccessToken)
}

func TestExpiredAccessTokenIsRefreshedTransparently(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	before := h.app.Session.Get()

	h.clock.Advance(2 * time.Minute)

	const n = 6
	g, ctx := errgroup.WithContext(t.Context())
	for range n {
		g.Go(func() error {
			_, err := h.app.Users.Profile(ctx)
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), h.app.API.Refreshes())
	assert.NotEqual(t, before.AccessToken, h.app.Session.Get().AccessToken)
	assert.Empty(t, h.Expired())
	assert.Equal(t, []string{"login", "home"}, h.nav.Visits())
}

func TestExpiredRefreshTokenEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.clock.Advance(2 * time.Hour)

	_, err := h.app.Users.Profile(t.Context())
	require.ErrorIs(t, err, api.ErrSessionExpired)

	assert.False(t, h.app.Session.Authenticated())
	assert.Len(t, h.Expired(), 1)
	assert.Equal(t, []string{"login", "home", "login"}, h.nav.Visits())

	_, err = h.durable.Read(t.Context())
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestSessionIsRestoredFromDurableSlot(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	cfg, err := Default()
	require.NoError(t, err)
	cfg.Auth = AuthConfig{Storage: TokenStorageTypeMemory}

	restored, err := New(t.Context(), cfg, WithTokenStore(h.durable))
	require.NoError(t, err)
	t.Cleanup(func() { _ = restored.Close() })

	assert.True(t, restored.Session.Authenticated())
	assert.Equal(t, h.app.Session.Get(), restored.Session.Get())
}

func TestResourcesThroughPipeline(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := t.Context()

	users, err := h.app.Users.All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	start := h.clock.Now().Add(-time.Hour)
	task, err := h.app.Tasks.Create(ctx, resources.CreateTaskRequest{
		UserID:    users[0].ID,
		TaskName:  "write report",
		StartedAt: start,
		EndedAt:   start.Add(30 * time.Minute),
		Status:    resources.TaskStatusDone,
	})
	require.NoError(t, err)

	// Crossing the access expiry mid-workflow must not surface to callers.
	h.clock.Advance(2 * time.Minute)

	page, err := h.app.Tasks.List(ctx, resources.ListTasksParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, task.ID, page.Items[0].ID)

	require.NoError(t, h.app.Tasks.Delete(ctx, task.ID))
	assert.Equal(t, int64(1), h.app.API.Refreshes())
}

func TestLogoutReturnsToLogin(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	require.NoError(t, h.app.API.Logout(t.Context()))
	assert.Equal(t, []string{"login", "home", "login"}, h.nav.Visits())

	_, err := h.app.Users.Profile(t.Context())
	require.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Zero(t, h.app.API.Refreshes())
}
