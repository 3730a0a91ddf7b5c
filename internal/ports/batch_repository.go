package ports

import (
	"context"

	"github.com/bnema/exati-cli/internal/domain"
)

type BatchRepository interface {
	Load(ctx context.Context) ([]domain.Occurrence, error)
	Save(ctx context.Context, occurrences []domain.Occurrence) error
}
