package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/exati-cli/internal/application"
	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports"
)

const (
	CommandUpdateObservation = "AtualizarObsPontoOcorrencia"

	reopeningPlaceholder = "Reabertura"
)

type Observations struct {
	caller ports.Caller
}

func NewObservations(caller ports.Caller) *Observations {
	return &Observations{caller: caller}
}

// Update replaces the observation of an occurrence's first service point and
// records the backend's answer as the occurrence outcome.
func (o *Observations) Update(ctx context.Context, occurrence *domain.Occurrence, text string) error {
	if occurrence.OccurrenceID == 0 {
		occurrence.Reject(domain.MessageMissingOccurrence)
		return nil
	}
	occurrence.Observation = text

	resp, err := o.caller.Call(ctx, CommandUpdateObservation, envelope.Fields{
		"CMD_ID_OCORRENCIA":       int64(occurrence.OccurrenceID),
		"CMD_INDEX_OCORRENCIA_PS": 1,
		"CMD_OBSERVACOES":         occurrence.Observation,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", CommandUpdateObservation, err)
	}

	application.ApplyOutcome(occurrence, resp)
	return nil
}

// MarkReopening swaps the reopening placeholder in the observation for the
// status and reason of the service that reopened the occurrence.
func (o *Observations) MarkReopening(ctx context.Context, occurrence *domain.Occurrence, status domain.ServiceStatus) error {
	text := strings.ReplaceAll(occurrence.Observation, reopeningPlaceholder, status.Status+" "+status.Reason)
	return o.Update(ctx, occurrence, text)
}
