package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the styles shared by the interactive views.
type Styles struct {
	Title     lipgloss.Style
	Error     lipgloss.Style
	Warn      lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Pinned    lipgloss.Style
	ListBox   lipgloss.Style
	DetailBox lipgloss.Style
	StatusBar lipgloss.Style
}

// DefaultStyles returns the standard style set.
func DefaultStyles() *Styles {
	return &Styles{
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#0077B6")).Bold(true).Padding(0, 1),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56")).Bold(true),
		Warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBD2E")).Bold(true),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3A3A3A")),
		Pinned:    lipgloss.NewStyle().Foreground(lipgloss.Color("#C792EA")).Bold(true),
		ListBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1),
		DetailBox: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A")),
	}
}
