package results

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	column  lipgloss.Style
	border  lipgloss.Style
	ok      lipgloss.Style
	nok     lipgloss.Style
	pending lipgloss.Style
	empty   lipgloss.Style
	section lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		cell:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1),
		column:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1),
		border:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		ok:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")).Padding(0, 1),
		nok:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")).Padding(0, 1),
		pending: lipgloss.NewStyle().Faint(true).Padding(0, 1),
		empty:   lipgloss.NewStyle().Faint(true),
		section: lipgloss.NewStyle().MarginTop(1),
	}
}
