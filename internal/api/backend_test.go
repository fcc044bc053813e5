package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/florianilch/taskconsole/internal/session"
	"github.com/florianilch/taskconsole/internal/tokenstore"
)

// fakeBackend accepts one access token at a time and rotates it on refresh.
type fakeBackend struct {
	mu           sync.Mutex
	access       string
	refresh      string
	generation   int
	refreshFails bool
	// replayFails makes /items reject every token, fresh or not.
	replayFails bool

	// barrier holds the first n rejected /items requests until all n arrived.
	barrier     int
	rejected    int
	barrierOpen chan struct{}

	// refreshStarted is closed when the first refresh call arrives;
	// refreshRelease, when set, holds every refresh call until closed.
	refreshStarted chan struct{}
	refreshRelease chan struct{}
	startOnce      sync.Once

	refreshCalls atomic.Int32
	staleHits    atomic.Int32
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{
		access:         "access-0",
		refresh:        "refresh-0",
		barrierOpen:    make(chan struct{}),
		refreshStarted: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.login)
	mux.HandleFunc("POST /auth/refresh", b.refreshToken)
	mux.HandleFunc("GET /items", b.items)
	mux.HandleFunc("POST /items", b.createItem)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) current() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.access, b.refresh
}

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeTestJSON(w, http.StatusBadRequest, map[string]any{"msg": "bad body"})
		return
	}
	if creds.Username != "admin" || creds.Password != "secret" {
		writeTestJSON(w, http.StatusUnauthorized, map[string]any{"msg": "wrong username or password"})
		return
	}
	access, refresh := b.current()
	writeTestJSON(w, http.StatusOK, map[string]any{
		"data": map[string]string{"access_token": access, "refresh_token": refresh},
		"msg":  "ok",
	})
}

func (b *fakeBackend) refreshToken(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)
	b.startOnce.Do(func() { close(b.refreshStarted) })
	if b.refreshRelease != nil {
		<-b.refreshRelease
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.refreshFails || r.Header.Get("Authorization") != "Bearer "+b.refresh {
		writeTestJSON(w, http.StatusUnauthorized, map[string]any{"msg": "refresh token expired"})
		return
	}

	b.generation++
	b.access = "access-" + strconv.Itoa(b.generation)
	b.refresh = "refresh-" + strconv.Itoa(b.generation)
	writeTestJSON(w, http.StatusOK, map[string]any{
		"data": map[string]string{"access_token": b.access, "refresh_token": b.refresh},
		"msg":  "ok",
	})
}

func (b *fakeBackend) items(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	valid := !b.replayFails && r.Header.Get("Authorization") == "Bearer "+b.access
	var wait chan struct{}
	if !valid && b.barrier > 0 && b.rejected < b.barrier {
		b.rejected++
		wait = b.barrierOpen
		if b.rejected == b.barrier {
			close(b.barrierOpen)
		}
	}
	b.mu.Unlock()

	if !valid {
		b.staleHits.Add(1)
		if wait != nil {
			select {
			case <-wait:
			case <-time.After(5 * time.Second):
			}
		}
		writeTestJSON(w, http.StatusUnauthorized, map[string]any{"msg": "token expired"})
		return
	}
	writeTestJSON(w, http.StatusOK, map[string]any{"data": []string{"a", "b"}, "msg": "ok"})
}

func (b *fakeBackend) createItem(w http.ResponseWriter, r *http.Request) {
	writeTestJSON(w, http.StatusUnprocessableEntity, map[string]any{"msg": "name is required"})
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newTestClient returns a client against srv whose session holds token.
func newTestClient(t *testing.T, srv *httptest.Server, token *session.Token, opts ...ClientOption) (*Client, *tokenstore.MemoryStore) {
	t.Helper()
	durable := tokenstore.NewMemoryStore()
	store, err := session.Open(t.Context(), durable)
	require.NoError(t, err)
	if token != nil {
		require.NoError(t, store.Set(t.Context(), token))
	}

	dispatcher, err := NewHTTPDispatcher(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	client, err := NewClient(dispatcher, store, opts...)
	require.NoError(t, err)
	return client, durable
}
