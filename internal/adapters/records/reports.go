package records

import (
	"context"
	"slices"
	"time"

	"github.com/bnema/exati-cli/internal/domain"
	"github.com/bnema/exati-cli/internal/envelope"
	"github.com/bnema/exati-cli/internal/ports"
)

const (
	CommandReports       = "ConsultarLaudo"
	CommandReportSamples = "ConsultarAmostraLaudo"

	// DefaultReportWindow is how far back Export looks without an explicit
	// start date.
	DefaultReportWindow = 30 * 24 * time.Hour
)

// ReportFilters keeps records whose value for each key is one of the listed
// values, compared in text form.
type ReportFilters map[string][]string

func (f ReportFilters) match(record Record) bool {
	for key, allowed := range f {
		value, ok := envelope.String(record[key])
		if !ok || !slices.Contains(allowed, value) {
			return false
		}
	}
	return true
}

type Reports struct {
	caller ports.Caller
	clock  ports.Clock
}

func NewReports(caller ports.Caller, clock ports.Clock) *Reports {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Reports{caller: caller, clock: clock}
}

// Export lists reports created since the given day. A zero since means
// DefaultReportWindow before now.
func (r *Reports) Export(ctx context.Context, since time.Time, filters ReportFilters) ([]Record, error) {
	if since.IsZero() {
		since = r.clock.Now().Add(-DefaultReportWindow)
	}

	all, err := export(ctx, r.caller, CommandReports, envelope.Fields{
		fieldParkID:                defaultPark,
		"CMD_DATA_CRIACAO_INICIAL": since.Format(DateLayout),
	}, "LAUDOS", "LAUDO")
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return all, nil
	}

	matched := make([]Record, 0, len(all))
	for _, record := range all {
		if filters.match(record) {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (r *Reports) Samples(ctx context.Context, reportID int64) ([]Record, error) {
	return export(ctx, r.caller, CommandReportSamples, envelope.Fields{
		"CMD_ID_LAUDO":      reportID,
		"CMD_AGRUPADO":      0,
		"CMD_CONSULTA_MAPA": 1,
	}, "AMOSTRAS_LAUDO", "AMOSTRA_LAUDO")
}

func ReportFromRecord(record Record) domain.Report {
	var report domain.Report
	report.Date, _ = envelope.String(record["DATA"])
	report.ID, _ = envelope.Int64(record["ID_LAUDO"])
	report.Description, _ = envelope.String(record["DESC_LAUDO"])
	report.TypeID, _ = envelope.Int64(record["ID_TIPO_LAUDO"])
	report.TypeDescription, _ = envelope.String(record["DESC_TIPO_LAUDO"])
	report.TeamID, _ = envelope.Int64(record["ID_EQUIPE"])
	report.TeamDescription, _ = envelope.String(record["DESC_EQUIPE"])

	if samples, ok := envelope.Int64(record["NUM_AMOSTRAS"]); ok {
		report.SampleCount = int(samples)
	}
	if evaluated, ok := envelope.Int64(record["AVALIADAS"]); ok {
		report.EvaluatedCount = int(evaluated)
	}
	return report
}
