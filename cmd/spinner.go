package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

type batchProgressMsg struct {
	done  int
	total int
}

type batchDoneMsg struct {
	err error
}

// progressFunc reports how many occurrences of a batch have been classified.
type progressFunc func(done, total int)

// batchSpinnerModel shows a spinner with the batch label and, once the first
// occurrence is classified, a done/total counter.
type batchSpinnerModel struct {
	spinner  spinner.Model
	label    string
	work     tea.Cmd
	done     int
	total    int
	err      error
	finished bool
}

func newBatchSpinnerModel(label string, work tea.Cmd) batchSpinnerModel {
	return batchSpinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		label: label,
		work:  work,
	}
}

func (m batchSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m batchSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case batchProgressMsg:
		m.done, m.total = msg.done, msg.total
		return m, nil
	case batchDoneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m batchSpinnerModel) View() string {
	if m.finished {
		return ""
	}
	if m.total == 0 {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}
	return fmt.Sprintf("%s %s %s", m.spinner.View(), m.label, progressStyle.Render(fmt.Sprintf("%d/%d", m.done, m.total)))
}

// runWithSpinner runs work while a spinner on output tracks its progress.
func runWithSpinner(ctx context.Context, output io.Writer, label string, work func(context.Context, progressFunc) error) error {
	var p *tea.Program
	report := func(done, total int) {
		p.Send(batchProgressMsg{done: done, total: total})
	}
	workCmd := func() tea.Msg {
		return batchDoneMsg{err: work(ctx, report)}
	}

	p = tea.NewProgram(
		newBatchSpinnerModel(label, workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(batchSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}
	return result.err
}
