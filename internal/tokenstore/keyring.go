package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore provides OS-native secure credential storage for tokens.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements TokenStore
var _ TokenStore = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore for the OS-native credential storage
// (macOS Keychain, Windows Credential Manager, etc.) using the given service and user identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Read returns the value from the system keyring. Returns ErrNotFound if absent or empty.
func (k *KeyringStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	value, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	if value == "" {
		return "", ErrNotFound
	}

	return value, nil
}

// Write persists the value to the system keyring, overwriting any existing value.
func (k *KeyringStore) Write(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return keyring.Set(k.service, k.user, value)
}

// Delete removes the keyring entry. A missing entry is not an error.
func (k *KeyringStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := keyring.Delete(k.service, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
