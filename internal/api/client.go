package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/taskconsole/internal/session"
)

// Backend endpoints owned by the pipeline itself.
const (
	LoginPath   = "/auth/login"
	RefreshPath = "/auth/refresh"
)

var validate = validator.New()

// SessionExpiredFunc receives the session-expired signal.
type SessionExpiredFunc func(ctx context.Context, err error)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSessionExpiredHandler registers fn to be called once for every failed
// refresh, after the session has been cleared.
func WithSessionExpiredHandler(fn SessionExpiredFunc) ClientOption {
	return func(c *Client) {
		c.onExpired = fn
	}
}

// Client sends authenticated requests and keeps the session's token pair fresh.
// It is safe for concurrent use.
type Client struct {
	dispatcher Dispatcher
	session    *session.Store
	onExpired  SessionExpiredFunc

	gate      refreshGate
	refreshes atomic.Int64
}

// NewClient creates a Client sending through dispatcher on behalf of store's session.
func NewClient(dispatcher Dispatcher, store *session.Store, opts ...ClientOption) (*Client, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("missing dispatcher")
	}
	if store == nil {
		return nil, fmt.Errorf("missing session store")
	}

	c := &Client{
		dispatcher: dispatcher,
		session:    store,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Session returns the store the client authenticates with.
func (c *Client) Session() *session.Store {
	return c.session
}

// Refreshes returns how many refresh calls the client has issued.
func (c *Client) Refreshes() int64 {
	return c.refreshes.Load()
}

// Do sends req with the session's access token. When the backend rejects the
// token, Do refreshes the session (or waits for a refresh already in flight)
// and replays req once. If the session cannot be refreshed, Do returns an
// error wrapping ErrSessionExpired.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if flight := c.gate.outstanding(); flight != nil {
		if err := flight.wait(ctx); err != nil {
			return nil, err
		}
		if flight.err != nil {
			return nil, flight.err
		}
	}

	sent := c.session.Get()
	resp, err := c.dispatcher.Send(ctx, Authorize(req, sent))
	if !IsUnauthorized(err) {
		return resp, err
	}

	return c.recover(ctx, req, sent)
}

// recover handles a 401 for req, which was sent with token sent.
func (c *Client) recover(ctx context.Context, req *Request, sent *session.Token) (*Response, error) {
	if sent == nil && c.session.Get() == nil {
		return nil, fmt.Errorf("%w: not logged in", ErrSessionExpired)
	}

	flight, role := c.gate.join(func() bool { return c.session.Get() == sent })
	switch role {
	case roleLead:
		// Waiters depend on this refresh; the leader giving up must not cancel it.
		err := c.refresh(context.WithoutCancel(ctx), sent)
		c.gate.settle(flight, err)
		slog.DebugContext(ctx, "refresh settled", "waiters", flight.waiters.Load(), "failed", err != nil)
		if err != nil {
			return nil, err
		}
	case roleWait:
		if err := flight.wait(ctx); err != nil {
			return nil, err
		}
		if flight.err != nil {
			return nil, flight.err
		}
	case roleStale:
		slog.DebugContext(ctx, "token replaced while request was in flight, replaying")
	}

	current := c.session.Get()
	if current == nil {
		return nil, fmt.Errorf("%w: logged out", ErrSessionExpired)
	}

	// Single replay: a second 401 is returned to the caller as is.
	return c.dispatcher.Send(ctx, Authorize(req, current))
}

// refresh exchanges token's refresh token for a new pair and stores it.
// On failure the session is cleared and the expiry signal emitted.
func (c *Client) refresh(ctx context.Context, token *session.Token) error {
	c.refreshes.Add(1)
	slog.InfoContext(ctx, "access token rejected, refreshing session")

	err := c.exchange(ctx, token)
	if err == nil {
		slog.InfoContext(ctx, "session refreshed")
		return nil
	}

	slog.WarnContext(ctx, "session refresh failed, logging out", "error", err)
	if clearErr := c.session.Set(ctx, nil); clearErr != nil {
		slog.ErrorContext(ctx, "failed to clear stored token", "error", clearErr)
	}

	expired := fmt.Errorf("%w: %w", ErrSessionExpired, err)
	if c.onExpired != nil {
		c.onExpired(ctx, expired)
	}
	return expired
}

func (c *Client) exchange(ctx context.Context, token *session.Token) error {
	if token == nil {
		return fmt.Errorf("no refresh token")
	}

	resp, err := c.dispatcher.Send(ctx, &Request{
		Method:     http.MethodPost,
		Path:       RefreshPath,
		Credential: token.RefreshCredential(),
	})
	if err != nil {
		return err
	}

	fresh, err := decodeToken(resp)
	if err != nil {
		return err
	}

	return c.session.Set(ctx, fresh)
}

// Credentials identify a console user at login.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges credentials for a token pair and starts a session with it.
// Login never takes part in the refresh protocol: a 401 means the credentials
// were rejected and is reported as ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, creds Credentials) (*session.Token, error) {
	if err := validate.Struct(creds); err != nil {
		return nil, fmt.Errorf("incomplete credentials: %w", err)
	}

	resp, err := c.dispatcher.Send(ctx, &Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Body:   creds,
	})
	if IsUnauthorized(err) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	token, err := decodeToken(resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := c.session.Set(ctx, token); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	slog.InfoContext(ctx, "logged in", "username", creds.Username)
	return token, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.session.Set(ctx, nil); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	slog.InfoContext(ctx, "logged out")
	return nil
}

func decodeToken(resp *Response) (*session.Token, error) {
	token, err := DecodeData[*session.Token](resp)
	if err != nil {
		return nil, err
	}
	if err := token.Validate(); err != nil {
		return nil, fmt.Errorf("malformed token response: %w", err)
	}
	return token, nil
}
