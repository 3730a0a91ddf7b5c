package domain

import "time"

// Report is a technical evaluation ("laudo") with its sampled occurrences.
type Report struct {
	Date            string
	ID              int64
	Description     string
	TypeID          int64
	TypeDescription string
	SampleCount     int
	EvaluatedCount  int
	TeamID          int64
	TeamDescription string
	Occurrences     []Occurrence
	OccurrenceCount int
}

type ServicePoint struct {
	ID        ServicePointID
	Latitude  float64
	Longitude float64
}

// ServiceStatus is the latest service record of a service point.
type ServiceStatus struct {
	Status string
	Reason string
	Date   time.Time
}
