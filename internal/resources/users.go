package resources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/florianilch/taskconsole/internal/api"
)

// ProfilePath returns the logged-in user.
const ProfilePath = "/auth/profile"

// User is a console account.
type User struct {
	ID        int64     `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	Nickname  string    `json:"nickname" yaml:"nickname"`
	Email     string    `json:"email" yaml:"email"`
	Avatar    string    `json:"avatar" yaml:"avatar"`
	Gender    string    `json:"gender" yaml:"gender"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ListUsersParams filters GET /users.
type ListUsersParams struct {
	Page     int     `validate:"min=1"`
	PageSize int     `validate:"min=1,max=100"`
	Nickname *string `validate:"omitempty,min=1"`
}

// CreateUserRequest is the body of POST /user.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Nickname string `json:"nickname" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
}

// UpdateUserRequest is the body of PUT /user/{id}.
type UpdateUserRequest struct {
	ID       int64  `json:"id" validate:"required,gt=0"`
	Nickname string `json:"nickname" validate:"required,max=64"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
}

// Users is the client for user accounts.
type Users struct {
	doer Doer
}

// NewUsers creates a Users client sending through doer.
func NewUsers(doer Doer) *Users {
	return &Users{doer: doer}
}

// Profile returns the user the session belongs to.
func (u *Users) Profile(ctx context.Context) (*User, error) {
	return call[*User](ctx, u.doer, &api.Request{Method: http.MethodGet, Path: ProfilePath})
}

// All returns every user without paging.
func (u *Users) All(ctx context.Context) ([]User, error) {
	return call[[]User](ctx, u.doer, &api.Request{Method: http.MethodGet, Path: "/users/all"})
}

// List returns one page of users.
func (u *Users) List(ctx context.Context, params ListUsersParams) (*Page[User], error) {
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid list parameters: %w", err)
	}

	query := url.Values{}
	if err := addQueryParam(query, "page", params.Page); err != nil {
		return nil, err
	}
	if err := addQueryParam(query, "page_size", params.PageSize); err != nil {
		return nil, err
	}
	if params.Nickname != nil {
		if err := addQueryParam(query, "nickname", *params.Nickname); err != nil {
			return nil, err
		}
	}

	return list[User](ctx, u.doer, &api.Request{Method: http.MethodGet, Path: "/users", Query: query})
}

// Create adds a user.
func (u *Users) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}
	return call[*User](ctx, u.doer, &api.Request{Method: http.MethodPost, Path: "/user", Body: req})
}

// Update changes a user's nickname and avatar.
func (u *Users) Update(ctx context.Context, req UpdateUserRequest) (*User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid user update: %w", err)
	}
	return call[*User](ctx, u.doer, &api.Request{Method: http.MethodPut, Path: idPath("/user", req.ID), Body: req})
}

// Delete removes a user.
func (u *Users) Delete(ctx context.Context, id int64) error {
	_, err := u.doer.Do(ctx, &api.Request{Method: http.MethodDelete, Path: idPath("/user", id)})
	return err
}
