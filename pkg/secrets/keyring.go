package secrets

import (
	"context"

	"github.com/zalando/go-keyring"
)

const DefaultKeyringService = "secret-helper"

// KeyringStore reads secrets from the OS keyring under a single service name.
type KeyringStore struct {
	Service string
}

func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{Service: service}
}

func (k *KeyringStore) GetSecretValue(_ context.Context, name string) (string, error) {
	return keyring.Get(k.Service, name)
}

func (k *KeyringStore) Set(name, value string) error {
	return keyring.Set(k.Service, name, value)
}

func (k *KeyringStore) Delete(name string) error {
	return keyring.Delete(k.Service, name)
}
