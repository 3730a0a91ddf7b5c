package domain

import (
	"strconv"
	"strings"
)

type (
	ServicePointID   int64
	OccurrenceID     int64
	RequestID        int64
	OccurrenceTypeID int64
	OriginTypeID     int64
)

type Outcome string

const (
	OutcomeOK  Outcome = "OK"
	OutcomeNOK Outcome = "NOK"
)

// Occurrence is a reported issue tied to a service point. It may map to
// several backend requests after reopenings. Outcome and Message are written
// back by save and delete.
type Occurrence struct {
	ServicePointID            ServicePointID
	RequestIDs                []RequestID
	OccurrenceID              OccurrenceID
	ServicePointIndex         int
	OriginTypeID              OriginTypeID
	OriginTypeDescription     string
	OccurrenceTypeID          OccurrenceTypeID
	Priority                  string
	OccurrenceTypeDescription string
	DeadlineDate              string
	DeadlineTime              string
	ComplaintDate             string
	ComplaintTime             string
	Observation               string
	Outcome                   Outcome
	Message                   string
}

func (o *Occurrence) Resolve(outcome Outcome, message string) {
	o.Outcome = outcome
	o.Message = message
}

func (o *Occurrence) Reject(message string) {
	o.Resolve(OutcomeNOK, message)
}

func (o Occurrence) Resolved() bool {
	return o.Outcome != ""
}

var occurrenceHeader = []string{
	"ID_PONTO_SERVICO",
	"ID_SOLICITACAO",
	"ID_OCORRENCIA",
	"INDEX_OCORRENCIA_PS",
	"ID_TIPO_ORIGEM_OCORRENCIA",
	"DESC_TIPO_ORIGEM_OCORRENCIA",
	"ID_TIPO_OCORRENCIA",
	"SIGLA_PRIORIDADE_PONTO_OCORR",
	"DESC_TIPO_OCORRENCIA",
	"DATA_LIMITE_ATENDIMENTO",
	"HORA_LIMITE_ATENDIMENTO",
	"DATA_RECLAMACAO",
	"HORA_RECLAMACAO",
	"OBS",
	"RESULTADO",
	"MENSAGEM",
}

// Header returns the tabular column names, in the same order as Row.
func (o Occurrence) Header() []string {
	return append([]string(nil), occurrenceHeader...)
}

func (o Occurrence) Row() []string {
	return []string{
		formatID(int64(o.ServicePointID)),
		JoinRequestIDs(o.RequestIDs),
		formatID(int64(o.OccurrenceID)),
		formatID(int64(o.ServicePointIndex)),
		formatID(int64(o.OriginTypeID)),
		o.OriginTypeDescription,
		formatID(int64(o.OccurrenceTypeID)),
		o.Priority,
		o.OccurrenceTypeDescription,
		o.DeadlineDate,
		o.DeadlineTime,
		o.ComplaintDate,
		o.ComplaintTime,
		o.Observation,
		string(o.Outcome),
		o.Message,
	}
}

func JoinRequestIDs(ids []RequestID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(int64(id), 10))
	}
	return strings.Join(parts, ",")
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
