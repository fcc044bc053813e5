package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Option configures a Server.
type Option func(*config)

type config struct {
	signingKey    []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	adminUsername string
	adminPassword string
	now           func() time.Time
	logger        *slog.Logger
}

// WithSigningKey sets the HS256 key for issued tokens.
func WithSigningKey(key []byte) Option {
	return func(c *config) {
		c.signingKey = key
	}
}

// WithTokenTTL sets the lifetimes of access and refresh tokens.
func WithTokenTTL(access, refresh time.Duration) Option {
	return func(c *config) {
		c.accessTTL = access
		c.refreshTTL = refresh
	}
}

// WithAdmin seeds an account with the given credentials.
func WithAdmin(username, password string) Option {
	return func(c *config) {
		c.adminUsername = username
		c.adminPassword = password
	}
}

// WithClock replaces time.Now for token issuing and validation.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Server is the development backend.
type Server struct {
	handler http.Handler
	server  *http.Server

	tokens *tokenIssuer
	data   *store
	now    func() time.Time
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates a Server. Without WithAdmin it starts with no accounts.
func New(opts ...Option) (*Server, error) {
	cfg := &config{
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.signingKey) < 32 {
		return nil, fmt.Errorf("signing key must be at least 32 bytes")
	}
	if cfg.accessTTL <= 0 || cfg.refreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}

	s := &Server{
		tokens: newTokenIssuer(cfg.signingKey, cfg.accessTTL, cfg.refreshTTL, cfg.now),
		data:   newStore(),
		now:    cfg.now,
	}

	if cfg.adminUsername != "" {
		if _, err := s.data.createUser(newUserInput{
			Username: cfg.adminUsername,
			Nickname: cfg.adminUsername,
			Password: cfg.adminPassword,
			Email:    cfg.adminUsername + "@localhost",
		}, cfg.now()); err != nil {
			return nil, fmt.Errorf("seeding admin account: %w", err)
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/refresh", s.refresh)

	authed := func(h http.HandlerFunc) http.Handler {
		return s.requireAccess(h)
	}
	mux.Handle("GET /auth/profile", authed(s.profile))

	mux.Handle("GET /users/all", authed(s.allUsers))
	mux.Handle("GET /users", authed(s.listUsers))
	mux.Handle("POST /user", authed(s.createUser))
	mux.Handle("PUT /user/{id}", authed(s.updateUser))
	mux.Handle("DELETE /user/{id}", authed(s.deleteUser))

	mux.Handle("GET /tasks", authed(s.listTasks))
	mux.Handle("POST /task", authed(s.createTask))
	mux.Handle("PUT /task/{id}", authed(s.updateTask))
	mux.Handle("DELETE /task/{id}", authed(s.deleteTask))

	s.handler = applyMiddlewares(mux,
		Logging(cfg.logger),
		Recovery,
	)

	return s, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
