package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/florianilch/taskconsole/internal/api"
	"github.com/florianilch/taskconsole/internal/devserver"
	"github.com/florianilch/taskconsole/internal/resources"
	"github.com/florianilch/taskconsole/internal/session"
	"github.com/florianilch/taskconsole/internal/tokenstore"
)

// App wires the session, the authenticated request pipeline and the resource
// clients built on it.
type App struct {
	durable tokenstore.TokenStore
	stop    func()

	Session *session.Store
	API     *api.Client
	Users   *resources.Users
	Tasks   *resources.Tasks
}

// Option configures an App.
type Option func(*options)

type options struct {
	navigator   session.Navigator
	onExpired   api.SessionExpiredFunc
	durable     tokenstore.TokenStore
	dispatchOpt []api.DispatcherOption
}

// WithNavigator follows session transitions with nav for the App's lifetime.
func WithNavigator(nav session.Navigator) Option {
	return func(o *options) {
		o.navigator = nav
	}
}

// WithSessionExpiredHandler registers fn for the session-expired signal.
func WithSessionExpiredHandler(fn api.SessionExpiredFunc) Option {
	return func(o *options) {
		o.onExpired = fn
	}
}

// WithTokenStore overrides the durable slot selected by the auth config.
func WithTokenStore(store tokenstore.TokenStore) Option {
	return func(o *options) {
		o.durable = store
	}
}

// WithDispatcherOptions passes options through to the HTTP dispatcher.
func WithDispatcherOptions(opts ...api.DispatcherOption) Option {
	return func(o *options) {
		o.dispatchOpt = append(o.dispatchOpt, opts...)
	}
}

// New restores the persisted session and builds the clients around it.
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	durable := o.durable
	if durable == nil {
		var err error
		durable, err = cfg.Auth.NewTokenStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create token store: %w", err)
		}
	}

	store, err := session.Open(ctx, durable)
	if err != nil {
		closeStore(durable)
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	dispatchOpts := append([]api.DispatcherOption{api.WithTimeout(cfg.Backend.Timeout)}, o.dispatchOpt...)
	dispatcher, err := api.NewHTTPDispatcher(cfg.Backend.BaseURL, dispatchOpts...)
	if err != nil {
		closeStore(durable)
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	var clientOpts []api.ClientOption
	if o.onExpired != nil {
		clientOpts = append(clientOpts, api.WithSessionExpiredHandler(o.onExpired))
	}
	client, err := api.NewClient(dispatcher, store, clientOpts...)
	if err != nil {
		closeStore(durable)
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	a := &App{
		durable: durable,
		stop:    func() {},
		Session: store,
		API:     client,
		Users:   resources.NewUsers(client),
		Tasks:   resources.NewTasks(client),
	}
	if o.navigator != nil {
		a.stop = session.NewObserver(o.navigator).Watch(ctx, store)
	}

	return a, nil
}

// Close stops session observation and releases the durable slot.
func (a *App) Close() error {
	a.stop()
	if c, ok := a.durable.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func closeStore(store tokenstore.TokenStore) {
	if c, ok := store.(io.Closer); ok {
		_ = c.Close()
	}
}

// NewDevServer builds the development backend from its configuration.
// Missing secrets are generated and the admin password is logged.
func NewDevServer(ctx context.Context, cfg DevServerConfig) (*devserver.Server, error) {
	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generating signing key: %w", err)
		}
		slog.WarnContext(ctx, "no signing key configured, issued tokens will not survive a restart")
	}

	password := cfg.AdminPassword
	if password == "" {
		password = uuid.NewString()
		slog.InfoContext(ctx, "generated admin password", "username", cfg.AdminUsername, "password", password)
	}

	return devserver.New(
		devserver.WithSigningKey(key),
		devserver.WithTokenTTL(cfg.AccessTTL, cfg.RefreshTTL),
		devserver.WithAdmin(cfg.AdminUsername, password),
		devserver.WithLogger(slog.Default()),
	)
}

// Serve runs the development backend and blocks until ctx is done or the
// server fails. Uses errgroup for runtime error monitoring and shutdown
// function collection for coordinated cleanup.
func Serve(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	server, err := NewDevServer(ctx, cfg.DevServer)
	if err != nil {
		return fmt.Errorf("failed to create dev server: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	address := cfg.DevServer.Host + ":" + strconv.FormatUint(uint64(cfg.DevServer.Port), 10)
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting dev server", "address", address)
	serverErrCh, err := server.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("dev server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, server.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "dev server runtime error", "error", err)
				return fmt.Errorf("dev server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "dev server ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.InfoContext(shutdownCtx, "dev server stopped")
	return nil
}
