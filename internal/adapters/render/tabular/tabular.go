package tabular

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
)

// WriteOccurrences writes one CSV row per occurrence under the occurrence
// header.
func WriteOccurrences(w io.Writer, occurrences []domain.Occurrence) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.Occurrence{}.Header()); err != nil {
		return fmt.Errorf("write occurrence header: %w", err)
	}
	for i, occurrence := range occurrences {
		if err := cw.Write(occurrence.Row()); err != nil {
			return fmt.Errorf("write occurrence %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var (
	reportHeader       = []string{"date", "report_id", "description", "type_id", "type", "team_id", "team", "samples", "evaluated"}
	servicePointHeader = []string{"service_point_id", "latitude", "longitude"}
)

// WriteReports writes the report summary columns, one row per report.
func WriteReports(w io.Writer, reports []domain.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for i, report := range reports {
		row := []string{
			report.Date,
			strconv.FormatInt(report.ID, 10),
			report.Description,
			strconv.FormatInt(report.TypeID, 10),
			report.TypeDescription,
			strconv.FormatInt(report.TeamID, 10),
			report.TeamDescription,
			strconv.Itoa(report.SampleCount),
			strconv.Itoa(report.EvaluatedCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write report %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func WriteServicePoints(w io.Writer, points []domain.ServicePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(servicePointHeader); err != nil {
		return fmt.Errorf("write service point header: %w", err)
	}
	for i, point := range points {
		row := []string{
			strconv.FormatInt(int64(point.ID), 10),
			strconv.FormatFloat(point.Latitude, 'f', -1, 64),
			strconv.FormatFloat(point.Longitude, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write service point %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRecords writes backend records as CSV. Columns are the sorted union of
// every record's keys; absent keys leave the cell empty.
func WriteRecords(w io.Writer, records []map[string]any) error {
	header := Columns(records)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write record header: %w", err)
	}
	for i, record := range records {
		row := make([]string, len(header))
		for j, key := range header {
			cell, err := formatCell(record[key])
			if err != nil {
				return fmt.Errorf("record %d field %s: %w", i, key, err)
			}
			row[j] = cell
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func Columns(records []map[string]any) []string {
	seen := map[string]struct{}{}
	for _, record := range records {
		for key := range record {
			seen[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

func formatCell(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	if text, ok := envelope.String(value); ok {
		return text, nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
