package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports"
)

const (
	CommandPriorityLookup = "ConsultarPrioridadeTipoOcorrencia"

	fieldOccurrenceTypeID = "CMD_ID_TIPO_OCORRENCIA"
	priorityCollection    = "PRIORIDADES_TIPO_OCORRENCIA"
	priorityItem          = "PRIORIDADE_TIPO_OCORRENCIA"
	priorityCodeKey       = "SIGLA_PRIORIDADE_PONTO_OCORR"
)

type priorityEntry struct {
	code string
	err  error
}

// PriorityCache memoizes the priority code of each occurrence type for the
// lifetime of one session. It is not safe for concurrent use.
type PriorityCache struct {
	caller  ports.Caller
	entries map[domain.OccurrenceTypeID]priorityEntry
}

func NewPriorityCache(caller ports.Caller) *PriorityCache {
	return &PriorityCache{
		caller:  caller,
		entries: make(map[domain.OccurrenceTypeID]priorityEntry),
	}
}

// Lookup returns the priority code for typeID, querying the backend at most
// once per type. A type the backend has no priority for is remembered as
// ErrPriorityNotFound; transport and authentication failures are not.
func (c *PriorityCache) Lookup(ctx context.Context, typeID domain.OccurrenceTypeID) (string, error) {
	if entry, ok := c.entries[typeID]; ok {
		return entry.code, entry.err
	}

	resp, err := c.caller.Call(ctx, CommandPriorityLookup, envelope.Fields{
		fieldOccurrenceTypeID: int64(typeID),
	})
	if err != nil {
		return "", fmt.Errorf("lookup priority for occurrence type %d: %w", typeID, err)
	}

	entry := priorityEntry{}
	entry.code, entry.err = priorityCode(resp)
	if entry.err != nil {
		entry.err = fmt.Errorf("occurrence type %d: %w", typeID, entry.err)
	}
	c.entries[typeID] = entry

	return entry.code, entry.err
}

// Len reports how many occurrence types have been resolved so far.
func (c *PriorityCache) Len() int {
	return len(c.entries)
}

func priorityCode(resp envelope.Response) (string, error) {
	records, ok := resp.Records(priorityCollection, priorityItem)
	if !ok || len(records) == 0 {
		return "", domain.ErrPriorityNotFound
	}

	code, ok := envelope.String(records[0][priorityCodeKey])
	if !ok || code == "" {
		return "", domain.ErrPriorityNotFound
	}

	return code, nil
}

func isPriorityMiss(err error) bool {
	return errors.Is(err, domain.ErrPriorityNotFound)
}
