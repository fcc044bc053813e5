package tokenstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when the slot holds no value.
var ErrNotFound = errors.New("token not found")

// TokenStore reads and writes the serialized token to persistent storage.
type TokenStore interface {
	// Read returns the stored value. Returns ErrNotFound if the slot is empty.
	Read(ctx context.Context) (string, error)

	// Write persists the value, replacing whatever the slot held before.
	Write(ctx context.Context, value string) error

	// Delete erases the slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context) error
}
