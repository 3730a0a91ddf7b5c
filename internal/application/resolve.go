package application

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
)

// MissPolicy decides what happens to an occurrence id absent from the index.
type MissPolicy int

const (
	// MissStub keeps the id as an occurrence carrying nothing else.
	MissStub MissPolicy = iota
	// MissSkip drops the id.
	MissSkip
)

const (
	sampleHasOccurrenceKey = "POSSUI_OCORRENCIA"
	sampleOccurrenceIDsKey = "ID_OCORRENCIA"

	recordServicePointIDKey     = "ID_PONTO_SERVICO"
	recordOccurrenceIDKey       = "ID_OCORRENCIA"
	recordOccurrenceTypeIDKey   = "ID_TIPO_OCORRENCIA"
	recordOccurrenceTypeDescKey = "DESC_TIPO_OCORRENCIA"
)

// OccurrenceIndex maps occurrence ids to backend records, as built from the
// service status export.
type OccurrenceIndex map[domain.OccurrenceID]map[string]any

// ResolveOccurrenceIDs expands a comma-joined id list into occurrences.
func ResolveOccurrenceIDs(field string, index OccurrenceIndex, policy MissPolicy) ([]domain.Occurrence, error) {
	tokens := strings.Split(field, ",")
	occurrences := make([]domain.Occurrence, 0, len(tokens))

	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		parsed, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse occurrence id %q: %w", token, err)
		}
		id := domain.OccurrenceID(parsed)

		record, ok := index[id]
		if !ok {
			if policy == MissSkip {
				continue
			}
			occurrences = append(occurrences, domain.Occurrence{OccurrenceID: id})
			continue
		}
		occurrences = append(occurrences, occurrenceFromRecord(id, record))
	}

	return occurrences, nil
}

// ReportOccurrences expands every report sample flagged as having
// occurrences.
func ReportOccurrences(samples []map[string]any, index OccurrenceIndex, policy MissPolicy) ([]domain.Occurrence, error) {
	var occurrences []domain.Occurrence
	for _, sample := range samples {
		if flag, ok := envelope.Int64(sample[sampleHasOccurrenceKey]); !ok || flag != 1 {
			continue
		}
		field, _ := envelope.String(sample[sampleOccurrenceIDsKey])

		resolved, err := ResolveOccurrenceIDs(field, index, policy)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, resolved...)
	}

	return occurrences, nil
}

// NewOccurrenceIndex keys records by their ID_OCORRENCIA. Records without a
// readable id are left out.
func NewOccurrenceIndex(records []map[string]any) OccurrenceIndex {
	index := make(OccurrenceIndex, len(records))
	for _, record := range records {
		id, ok := envelope.Int64(record[recordOccurrenceIDKey])
		if !ok {
			continue
		}
		index[domain.OccurrenceID(id)] = record
	}
	return index
}

func occurrenceFromRecord(id domain.OccurrenceID, record map[string]any) domain.Occurrence {
	occurrence := domain.Occurrence{OccurrenceID: id}
	if value, ok := envelope.Int64(record[recordOccurrenceIDKey]); ok {
		occurrence.OccurrenceID = domain.OccurrenceID(value)
	}
	if value, ok := envelope.Int64(record[recordServicePointIDKey]); ok {
		occurrence.ServicePointID = domain.ServicePointID(value)
	}
	if value, ok := envelope.Int64(record[recordOccurrenceTypeIDKey]); ok {
		occurrence.OccurrenceTypeID = domain.OccurrenceTypeID(value)
	}
	if value, ok := envelope.String(record[recordOccurrenceTypeDescKey]); ok {
		occurrence.OccurrenceTypeDescription = value
	}
	return occurrence
}
