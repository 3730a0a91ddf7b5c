package records

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/exati-cli/internal/application"
	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports"
)

const (
	CommandServiceStatus  = "ConsultarStatusAtendimentoPontoServico"
	CommandServiceHistory = "ConsultarAtendimentoPorPontoServico"

	statusDescriptionKey = "DESC_STATUS_ATENDIMENTO_PS"
	statusReasonKey      = "DESC_MOTIVO_ATENDIMENTO_PS"
	statusDateKey        = "DATA_ATENDIMENTO"
	pendingStatus        = "Pendente"
)

type StatusFilter int

const (
	StatusPending StatusFilter = 0
	StatusDone    StatusFilter = 1
	StatusAll     StatusFilter = -1
)

// FallbackServiceStatus stands in for service points without a readable
// service record.
var FallbackServiceStatus = domain.ServiceStatus{
	Status: pendingStatus,
	Reason: pendingStatus,
	Date:   time.Date(2021, time.July, 1, 0, 0, 0, 0, time.UTC),
}

type ServiceStatus struct {
	caller ports.Caller
}

func NewServiceStatus(caller ports.Caller) *ServiceStatus {
	return &ServiceStatus{caller: caller}
}

// Export lists service point occurrences by service status between two days.
func (s *ServiceStatus) Export(ctx context.Context, from, to time.Time, status StatusFilter) ([]Record, error) {
	return export(ctx, s.caller, CommandServiceStatus, envelope.Fields{
		fieldParkID:          defaultPark,
		"CMD_DATA_INICIO":    from.Format(DateLayout),
		"CMD_DATA_CONCLUSAO": to.Format(DateLayout),
		"CMD_STATUS":         int(status),
	}, "PONTOS_STATUS_ATENDIMENTO", "PONTO_STATUS_ATENDIMENTO")
}

// Index exports and keys the result by occurrence id, ready for id
// resolution.
func (s *ServiceStatus) Index(ctx context.Context, from, to time.Time, status StatusFilter) (application.OccurrenceIndex, error) {
	records, err := s.Export(ctx, from, to, status)
	if err != nil {
		return nil, err
	}
	return application.NewOccurrenceIndex(records), nil
}

// ByPoint lists the service records of one service point, newest first. A
// service point without records yields an empty list.
func (s *ServiceStatus) ByPoint(ctx context.Context, id domain.ServicePointID) ([]Record, error) {
	records, err := export(ctx, s.caller, CommandServiceHistory, envelope.Fields{
		fieldParkID:            defaultPark,
		"CMD_ID_PONTO_SERVICO": int64(id),
	}, "ATENDIMENTOS", "ATENDIMENTO")
	if errors.Is(err, domain.ErrMissingPayload) {
		return []Record{}, nil
	}
	return records, err
}

// Latest returns the status, reason and date of the newest service record,
// or FallbackServiceStatus when there is none.
func (s *ServiceStatus) Latest(ctx context.Context, id domain.ServicePointID) (domain.ServiceStatus, error) {
	records, err := s.ByPoint(ctx, id)
	if err != nil {
		return domain.ServiceStatus{}, err
	}
	if len(records) == 0 {
		return FallbackServiceStatus, nil
	}

	newest := records[0]
	status, okStatus := envelope.String(newest[statusDescriptionKey])
	reason, okReason := envelope.String(newest[statusReasonKey])
	rawDate, okDate := envelope.String(newest[statusDateKey])
	if !okStatus || !okReason || !okDate {
		return FallbackServiceStatus, nil
	}

	date, err := time.Parse(DateLayout, rawDate)
	if err != nil {
		return FallbackServiceStatus, nil
	}

	return domain.ServiceStatus{Status: status, Reason: reason, Date: date}, nil
}
