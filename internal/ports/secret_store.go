package ports

import (
	"context"
	"errors"
)

type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// ErrSecretNotFound is wrapped by stores when a key holds no secret.
var ErrSecretNotFound = errors.New("secret not found")
