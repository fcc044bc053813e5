package resources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"github.com/florianilch/taskconsole/internal/api"
)

// Doer sends a request through the authenticated pipeline.
type Doer interface {
	Do(ctx context.Context, req *api.Request) (*api.Response, error)
}

// Compile-time check to ensure api.Client implements Doer
var _ Doer = (*api.Client)(nil)

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items    []T `json:"items" yaml:"items"`
	Page     int `json:"page" yaml:"page"`
	PageSize int `json:"page_size" yaml:"page_size"`
	Total    int `json:"total" yaml:"total"`
}

var validate = validator.New()

// call sends req and unwraps the envelope's data into T.
func call[T any](ctx context.Context, doer Doer, req *api.Request) (T, error) {
	var zero T
	resp, err := doer.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	return api.DecodeData[T](resp)
}

// list sends req and returns the page described by the envelope.
func list[T any](ctx context.Context, doer Doer, req *api.Request) (*Page[T], error) {
	resp, err := doer.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var env api.Envelope[[]T]
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}

	page := &Page[T]{Items: env.Data}
	if env.Page != nil {
		page.Page = *env.Page
	}
	if env.PageSize != nil {
		page.PageSize = *env.PageSize
	}
	if env.Total != nil {
		page.Total = *env.Total
	}
	return page, nil
}

// addQueryParam styles value as a form-exploded query parameter.
func addQueryParam(query url.Values, name string, value any) error {
	fragment, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("styling query parameter %s: %w", name, err)
	}

	parsed, err := url.ParseQuery(fragment)
	if err != nil {
		return fmt.Errorf("parsing query parameter %s: %w", name, err)
	}
	for key, values := range parsed {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	return nil
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}
