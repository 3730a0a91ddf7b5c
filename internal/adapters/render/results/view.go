package results

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/exati-cli/internal/application"
	"github.com/bnema/exati-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	maxMessageWidth = 60
	outcomeColumn   = 3
)

var columns = []string{"Service point", "Occurrence", "Type", "Outcome", "Message"}

type RenderOptions struct {
	// DryRun marks results that were validated locally only.
	DryRun bool
}

func renderView(result application.BatchResult, opts RenderOptions, s styles) string {
	title := fmt.Sprintf("Occurrence batch: %s", result.Operation)
	if opts.DryRun {
		title += " (dry run)"
	}

	lines := []string{
		s.title.Render(title),
		s.header.Render(summaryLine(result)),
	}

	if len(result.Occurrences) == 0 {
		lines = append(lines, s.empty.Render("No occurrences in batch."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	lines = append(lines, s.section.Render(renderTable(result.Occurrences, s)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func summaryLine(result application.BatchResult) string {
	line := fmt.Sprintf("occurrences: %d  ok: %d  nok: %d  pending: %d",
		len(result.Occurrences), result.OK, result.NOK, result.Pending)

	if elapsed := elapsedLabel(result.StartedAt, result.FinishedAt); elapsed != "" {
		line += "  " + elapsed
	}
	return line
}

func elapsedLabel(started, finished time.Time) string {
	if started.IsZero() || finished.IsZero() || finished.Before(started) {
		return ""
	}
	return "took " + finished.Sub(started).Round(time.Millisecond).String()
}

func renderTable(occurrences []domain.Occurrence, s styles) string {
	rows := make([][]string, 0, len(occurrences))
	for _, occurrence := range occurrences {
		rows = append(rows, []string{
			idLabel(int64(occurrence.ServicePointID)),
			idLabel(int64(occurrence.OccurrenceID)),
			typeLabel(occurrence),
			outcomeLabel(occurrence.Outcome),
			truncate(occurrence.Message, maxMessageWidth),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.border).
		Headers(columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.column
			}
			if col != outcomeColumn || row < 0 || row >= len(rows) {
				return s.cell
			}
			switch domain.Outcome(rows[row][col]) {
			case domain.OutcomeOK:
				return s.ok
			case domain.OutcomeNOK:
				return s.nok
			default:
				return s.pending
			}
		})

	return t.String()
}

func idLabel(id int64) string {
	if id == 0 {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}

func typeLabel(occurrence domain.Occurrence) string {
	if description := strings.TrimSpace(occurrence.OccurrenceTypeDescription); description != "" {
		return description
	}
	return idLabel(int64(occurrence.OccurrenceTypeID))
}

func outcomeLabel(outcome domain.Outcome) string {
	if outcome == "" {
		return "pending"
	}
	return string(outcome)
}

func truncate(text string, width int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= width {
		return string(runes)
	}
	return string(runes[:width-1]) + "…"
}
