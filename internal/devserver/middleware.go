package devserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v3"
)

type contextKey struct{}

// Recovery recovers from panics in HTTP handlers and returns HTTP 500 to the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recover() != nil {
				writeError(r.Context(), w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				// Logging of panics is handled in Logging middleware
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Logging logs HTTP requests with method, path, status, and duration.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		// Tokens travel in headers and bodies; never log either.
		LogRequestHeaders:  []string{"Content-Type", "Origin", "X-Request-Id"},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		RecoverPanics: false, // use dedicated middleware, panics are logged regardless
	})
}

// requireAccess rejects requests without a valid access token and stores the
// caller's user id in the request context.
func (s *Server) requireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.tokens.verify(bearerToken(r), kindAccess)
		if err != nil {
			writeError(r.Context(), w, "token invalid or expired", http.StatusUnauthorized)
			return
		}
		if _, ok := s.data.user(userID); !ok {
			writeError(r.Context(), w, "account no longer exists", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, userID)))
	})
}

func callerID(ctx context.Context) int64 {
	id, _ := ctx.Value(contextKey{}).(int64)
	return id
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// applyMiddlewares applies middlewares to a handler in the order they appear.
// The first middleware in the slice is the outermost (executes first).
func applyMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
