package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// Request describes one backend call.
type Request struct {
	Method string
	// Path is resolved against the dispatcher's base URL.
	Path   string
	Query  url.Values
	Header http.Header
	// Body is encoded as JSON when non-nil.
	Body any
	// Credential is presented as the request's Authorization header.
	Credential *oauth2.Token
}

// clone returns a shallow copy with its own header map.
func (r *Request) clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	return &c
}

// Response is a successful backend answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// Envelope is the backend's response wrapper.
type Envelope[T any] struct {
	Data     T      `json:"data"`
	Msg      string `json:"msg"`
	Page     *int   `json:"page,omitempty"`
	PageSize *int   `json:"page_size,omitempty"`
	Total    *int   `json:"total,omitempty"`
}

// DecodeData unwraps the envelope of resp into its data payload.
func DecodeData[T any](resp *Response) (T, error) {
	var env Envelope[T]
	if err := resp.Decode(&env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}
