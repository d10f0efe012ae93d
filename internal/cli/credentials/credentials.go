package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "controle-presos-cli"
)

// ErrNotFound is returned when no credential is stored for a server.
// Callers treat it as "anonymous or cookie session", never as a failure.
var ErrNotFound = errors.New("no stored credential")

// Store defines the interface for credential storage operations.
// This allows us to mock the keyring in tests.
type Store interface {
	Save(server, token string) error
	Load(server string) (string, error)
	Delete(server string) error
}

// Keyring implements Store using the OS keychain/credential manager
type Keyring struct{}

var Default Store = &Keyring{}

// keyringKey returns a unique key for storing tokens per server
func keyringKey(server string) string {
	return fmt.Sprintf("token-%s", server)
}

// Save persists the bearer token securely in the OS keychain. The token is
// opaque: no validation of its shape happens here.
func (k *Keyring) Save(server, token string) error {
	if err := keyring.Set(service, keyringKey(server), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Load retrieves the bearer token from the OS keychain. Returns ErrNotFound
// when no token is stored.
func (k *Keyring) Load(server string) (string, error) {
	token, err := keyring.Get(service, keyringKey(server))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Delete removes the bearer token from the OS keychain. Deleting an absent
// token is not an error, so logout stays idempotent.
func (k *Keyring) Delete(server string) error {
	if err := keyring.Delete(service, keyringKey(server)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
