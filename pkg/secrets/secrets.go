// Package secrets abstracts the operating system secret store used by
// the keyring value transform and the keyring CLI commands.
package secrets

import (
	"github.com/zalando/go-keyring"

	"github.com/arthur-debert/inimerge/pkg/errors"
)

// Store looks up and manages secrets identified by service and user.
type Store interface {
	// Lookup returns the secret for (service, user). Callers treat a
	// failure as non-fatal and degrade per their own policy.
	Lookup(service, user string) (string, error)
	// Set stores or replaces the secret for (service, user).
	Set(service, user, secret string) error
	// Delete removes the secret for (service, user).
	Delete(service, user string) error
}

// SystemStore is backed by the operating system keyring (Secret Service
// on Linux, Keychain on macOS, Credential Manager on Windows).
type SystemStore struct{}

var _ Store = SystemStore{}

func (SystemStore) Lookup(service, user string) (string, error) {
	secret, err := keyring.Get(service, user)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSecretLookup,
			"keyring lookup failed for service %q user %q", service, user)
	}
	return secret, nil
}

func (SystemStore) Set(service, user, secret string) error {
	if err := keyring.Set(service, user, secret); err != nil {
		return errors.Wrapf(err, errors.ErrSecretStore,
			"keyring store failed for service %q user %q", service, user)
	}
	return nil
}

func (SystemStore) Delete(service, user string) error {
	if err := keyring.Delete(service, user); err != nil {
		return errors.Wrapf(err, errors.ErrSecretStore,
			"keyring delete failed for service %q user %q", service, user)
	}
	return nil
}
