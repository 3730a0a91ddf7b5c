package records

import (
	"context"
	"time"

	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports"
)

const (
	CommandRequests = "ConsultarSolicitacao"

	requestsPageSize = 5000
)

// RequestQuery selects requests by complaint start date. Zero ids mean any
// origin or status.
type RequestQuery struct {
	Since    time.Time
	OriginID int64
	StatusID int64
}

type Requests struct {
	caller ports.Caller
}

func NewRequests(caller ports.Caller) *Requests {
	return &Requests{caller: caller}
}

func (r *Requests) Export(ctx context.Context, query RequestQuery) ([]Record, error) {
	return export(ctx, r.caller, CommandRequests, envelope.Fields{
		fieldParkIDs:                     defaultPark,
		"CMD_DATA_RECLAMACAO":            query.Since.Format(DateLayout),
		"CMD_ID_STATUS_SOLICITACAO":      optionalID(query.StatusID),
		"CMD_ID_TIPO_ORIGEM_SOLICITACAO": optionalID(query.OriginID),
		"CMD_INCONSISTENCIA":             -1,
		"CMD_PENDENTE_APROVACAO":         -1,
		"CMD_CONSULTAR_REABERTAS":        0,
		"CMD_SOMENTE_VINCULADOS":         0,
		"CMD_PAGE_SIZE":                  requestsPageSize,
	}, "SOLICITACOES", "SOLICITACAO")
}

// optionalID sends unset ids as an empty value, which the backend reads as
// "any".
func optionalID(id int64) any {
	if id == 0 {
		return ""
	}
	return id
}
