package application

import (
	"time"

	"github.com/bnema/exati-cli/internal/domain"
)

type BatchResult struct {
	Operation   BatchOperation
	Occurrences []domain.Occurrence
	OK          int
	NOK         int
	Pending     int
	StartedAt   time.Time
	FinishedAt  time.Time
}

func summarize(result *BatchResult) {
	result.OK, result.NOK, result.Pending = 0, 0, 0
	for _, occurrence := range result.Occurrences {
		switch occurrence.Outcome {
		case domain.OutcomeOK:
			result.OK++
		case domain.OutcomeNOK:
			result.NOK++
		default:
			result.Pending++
		}
	}
}
