package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/florianilch/taskconsole/internal/api"

	// maxResponseBytes bounds how much of a response body is buffered.
	maxResponseBytes = 8 << 20

	defaultTimeout = 30 * time.Second
)

// Dispatcher performs a single backend round trip.
type Dispatcher interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// DispatcherOption configures an HTTPDispatcher.
type DispatcherOption func(*HTTPDispatcher)

// WithHTTPClient sets the client used for round trips.
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(d *HTTPDispatcher) {
		d.client = client
	}
}

// WithTimeout bounds each round trip, including reading the body.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *HTTPDispatcher) {
		d.client.Timeout = timeout
	}
}

// HTTPDispatcher sends requests to a backend over HTTP with JSON bodies.
type HTTPDispatcher struct {
	baseURL *url.URL
	client  *http.Client
	tracer  trace.Tracer
}

// Compile-time check to ensure HTTPDispatcher implements Dispatcher
var _ Dispatcher = (*HTTPDispatcher)(nil)

// NewHTTPDispatcher creates a dispatcher for the backend at baseURL.
func NewHTTPDispatcher(baseURL string, opts ...DispatcherOption) (*HTTPDispatcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme and host required", baseURL)
	}

	d := &HTTPDispatcher{
		baseURL: base,
		client:  &http.Client{Timeout: defaultTimeout},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Send performs one round trip. It never retries.
func (d *HTTPDispatcher) Send(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := d.tracer.Start(ctx, req.Method+" "+req.Path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	resp, err := d.send(ctx, req)

	code := statusCode(err)
	if resp != nil {
		code = resp.StatusCode
	}
	if code != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", code))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return resp, err
}

func (d *HTTPDispatcher) send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := d.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		slog.DebugContext(ctx, "request failed", "method", req.Method, "path", req.Path, "error", err)
		return nil, &TransportError{Op: "sending request", Err: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "reading response", Err: err}
	}

	slog.DebugContext(ctx, "request completed",
		"method", req.Method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"duration", time.Since(start),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: httpResp.StatusCode,
			Message:    envelopeMessage(body),
			Body:       body,
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (d *HTTPDispatcher) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	target := d.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	for key, values := range req.Header {
		httpReq.Header[key] = values
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("X-Request-Id") == "" {
		httpReq.Header.Set("X-Request-Id", uuid.NewString())
	}
	if req.Credential != nil {
		req.Credential.SetAuthHeader(httpReq)
	}

	// W3C trace context, so backend spans join the console's trace.
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	return httpReq, nil
}

// envelopeMessage extracts msg from an error body, if it is an envelope.
func envelopeMessage(body []byte) string {
	var env struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Msg
}
