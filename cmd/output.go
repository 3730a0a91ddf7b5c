package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bnema/exati-cli/internal/adapters/records"
	resultsadapter "github.com/bnema/exati-cli/internal/adapters/render/results"
	"github.com/bnema/exati-cli/internal/adapters/render/tabular"
	"github.com/bnema/exati-cli/internal/application"
	"github.com/bnema/exati-cli/internal/domain"
	"github.com/spf13/cobra"
)

type outputFormat string

const (
	outputHuman outputFormat = "human"
	outputJSON  outputFormat = "json"
	outputCSV   outputFormat = "csv"
)

func resolveFormat(asJSON, asCSV bool, fallback outputFormat) outputFormat {
	switch {
	case asJSON:
		return outputJSON
	case asCSV:
		return outputCSV
	default:
		return fallback
	}
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeBatchResult(cmd *cobra.Command, app *app, result application.BatchResult, format outputFormat, dryRun bool) error {
	switch format {
	case outputJSON:
		return writeJSON(cmd.OutOrStdout(), result)
	case outputCSV:
		return tabular.WriteOccurrences(cmd.OutOrStdout(), result.Occurrences)
	}

	rendered, err := app.resultRenderer(result, resultsadapter.RenderOptions{DryRun: dryRun})
	if err != nil {
		return fmt.Errorf("render results: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func writeRecords(cmd *cobra.Command, list []records.Record, asCSV bool) error {
	if asCSV {
		return tabular.WriteRecords(cmd.OutOrStdout(), list)
	}
	return writeJSON(cmd.OutOrStdout(), list)
}

func writeOccurrences(cmd *cobra.Command, occurrences []domain.Occurrence, asCSV bool) error {
	if asCSV {
		return tabular.WriteOccurrences(cmd.OutOrStdout(), occurrences)
	}
	return writeJSON(cmd.OutOrStdout(), occurrences)
}

func writeReports(cmd *cobra.Command, reports []domain.Report, asCSV bool) error {
	if asCSV {
		return tabular.WriteReports(cmd.OutOrStdout(), reports)
	}
	return writeJSON(cmd.OutOrStdout(), reports)
}

func writeServicePoints(cmd *cobra.Command, points []domain.ServicePoint, asCSV bool) error {
	if asCSV {
		return tabular.WriteServicePoints(cmd.OutOrStdout(), points)
	}
	return writeJSON(cmd.OutOrStdout(), points)
}

// parseDay reads a dd/mm/yyyy flag value. An empty value yields the zero time.
func parseDay(flag, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	day, err := time.Parse(records.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a dd/mm/yyyy date, got %q", flag, value)
	}
	return day, nil
}
