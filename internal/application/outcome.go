package application

import (
	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
)

// ApplyOutcome classifies resp into the occurrence's outcome and message.
// The backend lists its most specific confirmation or error last.
func ApplyOutcome(occurrence *domain.Occurrence, resp envelope.Response) {
	messages, ok := resp.Messages()
	if !ok {
		occurrence.Reject(domain.MessageUnidentifiedError)
		return
	}

	switch {
	case len(messages.Informations) > 0:
		occurrence.Resolve(domain.OutcomeOK, messages.Informations[len(messages.Informations)-1])
	case len(messages.Errors) > 0:
		occurrence.Reject(domain.ErrorMessagePrefix + messages.Errors[len(messages.Errors)-1])
	default:
		occurrence.Reject(domain.MessageUnidentifiedError)
	}
}
