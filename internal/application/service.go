package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/ports"
)

var ErrUnsupportedBatchOperation = errors.New("unsupported batch operation")

// BatchRunner is the part of Orchestrator a batch run needs.
type BatchRunner interface {
	Save(ctx context.Context, occurrences []*domain.Occurrence) error
	Delete(ctx context.Context, occurrences []*domain.Occurrence) error
}

type Service struct {
	store          ports.SecretStore
	credentialsRef string
	clock          ports.Clock
}

func NewService(store ports.SecretStore, credentialsRef string, clock ports.Clock) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Service{
		store:          store,
		credentialsRef: credentialsRef,
		clock:          clock,
	}
}

func (s *Service) SetCredentials(ctx context.Context, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: credentials are empty", domain.ErrAuthentication)
	}
	if err := s.store.Put(ctx, s.credentialsRef, value); err != nil {
		return fmt.Errorf("store backend credentials: %w", err)
	}

	return nil
}

func (s *Service) RemoveCredentials(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.credentialsRef); err != nil {
		return fmt.Errorf("delete backend credentials: %w", err)
	}

	return nil
}

// Credentials prefers configured credentials over the secret store.
func (s *Service) Credentials(ctx context.Context, configured string) (string, error) {
	if value := strings.TrimSpace(configured); value != "" {
		return value, nil
	}

	value, err := s.store.Get(ctx, s.credentialsRef)
	if err != nil {
		if errors.Is(err, ports.ErrSecretNotFound) {
			return "", fmt.Errorf("%w: %w", domain.ErrCredentialsNotFound, err)
		}
		return "", fmt.Errorf("read backend credentials: %w", err)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: secret %q is empty", domain.ErrCredentialsNotFound, s.credentialsRef)
	}

	return strings.TrimSpace(value), nil
}

// RunBatch loads a batch, runs it through the runner and writes outcomes
// back. Results are written even when the run stops on a backend failure.
func (s *Service) RunBatch(ctx context.Context, repo ports.BatchRepository, runner BatchRunner, cmd RunBatchCommand) (BatchResult, error) {
	if !cmd.Operation.Valid() {
		return BatchResult{}, fmt.Errorf("%w: %q", ErrUnsupportedBatchOperation, cmd.Operation)
	}

	occurrences, err := repo.Load(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("load batch: %w", err)
	}

	result := BatchResult{Operation: cmd.Operation, StartedAt: s.clock.Now()}
	targets := make([]*domain.Occurrence, 0, len(occurrences))
	for i := range occurrences {
		targets = append(targets, &occurrences[i])
	}

	if cmd.DryRun {
		if cmd.Operation == BatchSave {
			for _, occurrence := range targets {
				if message, ok := validateForSave(*occurrence); !ok {
					occurrence.Reject(message)
				}
			}
		}
		result.Occurrences = occurrences
		result.FinishedAt = s.clock.Now()
		summarize(&result)
		return result, nil
	}

	var runErr error
	switch cmd.Operation {
	case BatchSave:
		runErr = runner.Save(ctx, targets)
	case BatchDelete:
		runErr = runner.Delete(ctx, targets)
	}

	result.Occurrences = occurrences
	result.FinishedAt = s.clock.Now()
	summarize(&result)

	if err := repo.Save(ctx, occurrences); err != nil {
		return result, errors.Join(runErr, fmt.Errorf("write batch results: %w", err))
	}
	if runErr != nil {
		return result, fmt.Errorf("run %s batch: %w", cmd.Operation, runErr)
	}

	return result, nil
}
