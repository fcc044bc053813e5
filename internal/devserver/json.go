package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Data     any    `json:"data"`
	Msg      string `json:"msg"`
	Page     *int   `json:"page,omitempty"`
	PageSize *int   `json:"page_size,omitempty"`
	Total    *int   `json:"total,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

func writeData(ctx context.Context, w http.ResponseWriter, data any, status int) {
	writeJSON(ctx, w, envelope{Data: data, Msg: "ok"}, status)
}

// writeError writes an envelope carrying only a message.
func writeError(ctx context.Context, w http.ResponseWriter, message string, status int) {
	writeJSON(ctx, w, envelope{Msg: message}, status)
}

// decodeBody decodes and validates a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid field %s: failed %s", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}
