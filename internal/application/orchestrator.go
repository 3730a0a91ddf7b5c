package application

import (
	"context"
	"log/slog"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/logger"
	"github.com/bnema/exati-cli/internal/ports"
	"github.com/google/uuid"
)

const (
	CommandCreateOccurrence  = "SalvarSolicitacaoPontoServico"
	CommandRequestDetails    = "ConsultarDetalhesSolicitacao"
	CommandOccurrenceLinkage = "ConsultarPontosServicoOcorrenciaNovo"
	CommandCancelElaboration = "CancelarElaboracaoSolicitacao"
	CommandExcludeRequest    = "ExcluirSolicitacao"
)

const (
	fieldServicePointID = "CMD_ID_PONTO_SERVICO"
	fieldComplaintDate  = "CMD_DATA_RECLAMACAO"
	fieldComplaintTime  = "CMD_HORA_RECLAMACAO"
	fieldOriginTypeID   = "CMD_ID_TIPO_ORIGEM_OCORRENCIA"
	fieldObservation    = "CMD_OBS"
	fieldPriority       = "CMD_SIGLA_PRIORIDADE_PONTO_OCORR"
	fieldRequestID      = "CMD_ID_SOLICITACAO"
	fieldOccurrenceID   = "CMD_ID_OCORRENCIA"

	requestDetailsKey         = "SOLICITACAO"
	priorServiceCounterKey    = "POSSUI_ATENDIMENTO_ANTERIOR"
	linkageCollection         = "PONTOS_SERVICOS_OCORRENCIA"
	linkageItem               = "PONTO_SERVICO_OCORRENCIA"
	currentReprogrammingIDKey = "ID_REPROGRAMACAO_ATUAL"
)

// Orchestrator creates and deletes occurrences against one backend session.
// Per-occurrence failures are recorded on the occurrence itself; only
// transport and authentication errors are returned.
type Orchestrator struct {
	caller     ports.Caller
	priorities *PriorityCache
	logger     *slog.Logger
	newRunID   func() string
	progress   func(done, total int)
}

func NewOrchestrator(caller ports.Caller, priorities *PriorityCache, log *slog.Logger) *Orchestrator {
	if priorities == nil {
		priorities = NewPriorityCache(caller)
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Orchestrator{
		caller:     caller,
		priorities: priorities,
		logger:     log.With("component", "application.orchestrator"),
		newRunID:   uuid.NewString,
	}
}

// OnProgress registers fn to be called after each occurrence is classified.
func (o *Orchestrator) OnProgress(fn func(done, total int)) {
	o.progress = fn
}

func (o *Orchestrator) reportProgress(done, total int) {
	if o.progress != nil {
		o.progress(done, total)
	}
}

// Save creates every valid occurrence. Occurrences after a returned error
// are left untouched.
func (o *Orchestrator) Save(ctx context.Context, occurrences []*domain.Occurrence) error {
	logger := o.logger.With("run_id", o.newRunID(), "operation", "save")
	logger.Info("batch started", "occurrences", len(occurrences))

	for i, occurrence := range occurrences {
		if err := o.save(ctx, logger, occurrence); err != nil {
			logger.Error("batch aborted", "index", i, "error", err)
			return err
		}
		logger.Debug("occurrence classified", "index", i, "outcome", occurrence.Outcome, "message", occurrence.Message)
		o.reportProgress(i+1, len(occurrences))
	}

	logger.Info("batch finished", "occurrences", len(occurrences))
	return nil
}

func (o *Orchestrator) save(ctx context.Context, logger *slog.Logger, occurrence *domain.Occurrence) error {
	if message, ok := validateForSave(*occurrence); !ok {
		occurrence.Reject(message)
		return nil
	}

	priority, err := o.priorities.Lookup(ctx, occurrence.OccurrenceTypeID)
	if err != nil {
		if isPriorityMiss(err) {
			logger.Warn("no priority for occurrence type", "occurrence_type", int64(occurrence.OccurrenceTypeID))
			occurrence.Reject(domain.MessagePriorityNotFound)
			return nil
		}
		return err
	}
	occurrence.Priority = priority

	resp, err := o.caller.Call(ctx, CommandCreateOccurrence, envelope.Fields{
		fieldServicePointID:   int64(occurrence.ServicePointID),
		fieldComplaintDate:    occurrence.ComplaintDate,
		fieldComplaintTime:    occurrence.ComplaintTime,
		fieldOriginTypeID:     int64(occurrence.OriginTypeID),
		fieldOccurrenceTypeID: int64(occurrence.OccurrenceTypeID),
		fieldObservation:      occurrence.Observation,
		fieldPriority:         occurrence.Priority,
	})
	if err != nil {
		return err
	}

	ApplyOutcome(occurrence, resp)
	return nil
}

func validateForSave(occurrence domain.Occurrence) (string, bool) {
	switch {
	case occurrence.ComplaintDate == "" || occurrence.ComplaintTime == "":
		return domain.MessageMissingComplaint, false
	case occurrence.ServicePointID == 0:
		return domain.MessageMissingServicePoint, false
	case occurrence.OccurrenceTypeID == 0 || occurrence.OriginTypeID == 0:
		return domain.MessageMissingTypeOrOrigin, false
	default:
		return "", true
	}
}

// Delete cancels and excludes every request of each occurrence, unless the
// occurrence was reopened or reprogrammed.
func (o *Orchestrator) Delete(ctx context.Context, occurrences []*domain.Occurrence) error {
	logger := o.logger.With("run_id", o.newRunID(), "operation", "delete")
	logger.Info("batch started", "occurrences", len(occurrences))

	for i, occurrence := range occurrences {
		if err := o.delete(ctx, logger, occurrence); err != nil {
			logger.Error("batch aborted", "index", i, "error", err)
			return err
		}
		logger.Debug("occurrence classified", "index", i, "outcome", occurrence.Outcome, "message", occurrence.Message)
		o.reportProgress(i+1, len(occurrences))
	}

	logger.Info("batch finished", "occurrences", len(occurrences))
	return nil
}

func (o *Orchestrator) delete(ctx context.Context, logger *slog.Logger, occurrence *domain.Occurrence) error {
	if len(occurrence.RequestIDs) == 0 {
		occurrence.Reject(domain.MessageNoRequests)
		return nil
	}

	blocked, err := o.checkReopening(ctx, occurrence)
	if err != nil || blocked {
		return err
	}
	blocked, err = o.checkReprogramming(ctx, occurrence)
	if err != nil || blocked {
		return err
	}

	var last envelope.Response
	for _, requestID := range occurrence.RequestIDs {
		fields := envelope.Fields{fieldRequestID: int64(requestID)}
		if _, err := o.caller.Call(ctx, CommandCancelElaboration, fields); err != nil {
			return err
		}
		resp, err := o.caller.Call(ctx, CommandExcludeRequest, fields)
		if err != nil {
			return err
		}
		logger.Debug("request excluded", "request_id", int64(requestID))
		last = resp
	}

	ApplyOutcome(occurrence, last)
	return nil
}

// checkReopening rejects the occurrence when any of its requests already had
// a prior service.
func (o *Orchestrator) checkReopening(ctx context.Context, occurrence *domain.Occurrence) (bool, error) {
	for _, requestID := range occurrence.RequestIDs {
		resp, err := o.caller.Call(ctx, CommandRequestDetails, envelope.Fields{fieldRequestID: int64(requestID)})
		if err != nil {
			return false, err
		}

		raw, ok := resp.Field(requestDetailsKey)
		if !ok {
			occurrence.Reject(domain.MessageUnverifiedReopening)
			return true, nil
		}
		details, ok := envelope.Object(raw)
		if !ok {
			occurrence.Reject(domain.MessageUnverifiedReopening)
			return true, nil
		}

		counter := int64(0)
		if value, present := details[priorServiceCounterKey]; present && value != nil {
			if counter, ok = envelope.Int64(value); !ok {
				occurrence.Reject(domain.MessageUnverifiedReopening)
				return true, nil
			}
		}
		if counter >= 1 {
			occurrence.Reject(domain.MessageHasReopening)
			return true, nil
		}
	}

	return false, nil
}

// checkReprogramming rejects the occurrence when its current service point
// linkage carries a reprogramming id.
func (o *Orchestrator) checkReprogramming(ctx context.Context, occurrence *domain.Occurrence) (bool, error) {
	if occurrence.OccurrenceID == 0 {
		occurrence.Reject(domain.MessageUnverifiedReopening)
		return true, nil
	}

	resp, err := o.caller.Call(ctx, CommandOccurrenceLinkage, envelope.Fields{fieldOccurrenceID: int64(occurrence.OccurrenceID)})
	if err != nil {
		return false, err
	}

	records, ok := resp.Records(linkageCollection, linkageItem)
	if !ok || len(records) == 0 {
		occurrence.Reject(domain.MessageUnverifiedReopening)
		return true, nil
	}
	if _, present := records[0][currentReprogrammingIDKey]; present {
		occurrence.Reject(domain.MessageHasReopening)
		return true, nil
	}

	return false, nil
}
