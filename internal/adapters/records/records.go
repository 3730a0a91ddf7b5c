// Package records wraps the backend query commands. Each wrapper shapes the
// command fields, unwraps one COLLECTION.ITEM path and returns the raw
// records.
package records

import (
	"context"
	"fmt"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports"
)

// DateLayout is the backend's day/month/year date format.
const DateLayout = "02/01/2006"

const (
	fieldParkID  = "CMD_ID_PARQUE_SERVICO"
	fieldParkIDs = "CMD_IDS_PARQUE_SERVICO"
	defaultPark  = 1
)

type Record = map[string]any

// export runs command and unwraps RAIZ.<collection>.<item>. A collection
// without items is an empty result; a missing collection is an error.
func export(ctx context.Context, caller ports.Caller, command string, fields envelope.Fields, collection, item string) ([]Record, error) {
	resp, err := caller.Call(ctx, command, fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}

	return unwrap(resp, command, collection, item)
}

func unwrap(resp envelope.Response, command, collection, item string) ([]Record, error) {
	raw, ok := resp.Field(collection)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s.%s", command, domain.ErrMissingPayload, collection, item)
	}
	group, ok := envelope.Object(raw)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s is not an object", command, domain.ErrMissingPayload, collection)
	}
	if group[item] == nil {
		return []Record{}, nil
	}

	list, ok := envelope.ObjectList(group[item])
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s.%s is not a record list", command, domain.ErrMissingPayload, collection, item)
	}
	return list, nil
}

// IndexBy keys records by the text form of key. Records without the key are
// skipped and later duplicates win.
func IndexBy(records []Record, key string) map[string]Record {
	index := make(map[string]Record, len(records))
	for _, record := range records {
		value, ok := envelope.String(record[key])
		if !ok {
			continue
		}
		index[value] = record
	}
	return index
}
