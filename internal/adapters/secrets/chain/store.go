// Package chain combines a primary and a fallback secret store. Reads and
// writes go to the primary first; deletes clear both.
package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/exati-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/exati-cli/internal/adapters/secrets/pass"
	"github.com/bnema/exati-cli/internal/ports"
)

type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil || shouldSkipFallback(err) {
		return err
	}

	if fallbackErr := s.fallback.Put(ctx, key, value); fallbackErr != nil {
		return fmt.Errorf("primary store put failed: %w; fallback store put failed: %w", err, fallbackErr)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil || shouldSkipFallback(err) {
		return value, err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr != nil {
		return "", fmt.Errorf("primary store get failed: %w; fallback store get failed: %w", err, fallbackErr)
	}

	return fallbackValue, nil
}

// Delete removes the key from both stores so that a stale copy in the
// fallback cannot resurface.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}
	if errors.Is(err, passstore.ErrUnavailable) {
		err = nil
	}

	if fallbackErr := s.fallback.Delete(ctx, key); fallbackErr != nil {
		return errors.Join(err, fmt.Errorf("fallback store delete failed: %w", fallbackErr))
	}
	if err != nil {
		return fmt.Errorf("primary store delete failed: %w", err)
	}

	return nil
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
