package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/florianilch/taskconsole/internal/api"
)

// fakeDoer records requests and answers each with the next canned response.
type fakeDoer struct {
	requests  []*api.Request
	responses []any
	err       error
}

func (f *fakeDoer) Do(_ context.Context, req *api.Request) (*api.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}

	var body any = map[string]any{"data": nil, "msg": "ok"}
	if len(f.responses) > 0 {
		body, f.responses = f.responses[0], f.responses[1:]
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &api.Response{StatusCode: http.StatusOK, Body: data}, nil
}

func (f *fakeDoer) last(t *testing.T) *api.Request {
	t.Helper()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func ptr[T any](v T) *T {
	return &v
}
