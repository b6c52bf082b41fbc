package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	taglineStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("147")).Italic(true)

	studentLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8ecae6"))
	tutorLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd166"))
	mediaStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Italic(true)

	optionStyle        = lipgloss.NewStyle().PaddingLeft(2)
	optionCurrentStyle = lipgloss.NewStyle().PaddingLeft(0).Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))

	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	linkStyle      = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#7f5af0"))
	overlayStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	previewStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c")).Italic(true)
)
