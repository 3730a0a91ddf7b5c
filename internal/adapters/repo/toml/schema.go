package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version     int                `toml:"version"`
	Occurrences []occurrenceSchema `toml:"occurrences"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported batch schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type occurrenceSchema struct {
	ServicePointID            int64   `toml:"service_point_id,omitempty"`
	RequestIDs                []int64 `toml:"request_ids,omitempty"`
	OccurrenceID              int64   `toml:"occurrence_id,omitempty"`
	ServicePointIndex         int     `toml:"service_point_index,omitempty"`
	OriginTypeID              int64   `toml:"origin_type_id,omitempty"`
	OriginTypeDescription     string  `toml:"origin_type_description,omitempty"`
	OccurrenceTypeID          int64   `toml:"occurrence_type_id,omitempty"`
	Priority                  string  `toml:"priority,omitempty"`
	OccurrenceTypeDescription string  `toml:"occurrence_type_description,omitempty"`
	DeadlineDate              string  `toml:"deadline_date,omitempty"`
	DeadlineTime              string  `toml:"deadline_time,omitempty"`
	ComplaintDate             string  `toml:"complaint_date,omitempty"`
	ComplaintTime             string  `toml:"complaint_time,omitempty"`
	Observation               string  `toml:"observation,omitempty"`
	Outcome                   string  `toml:"outcome,omitempty"`
	Message                   string  `toml:"message,omitempty"`
}
