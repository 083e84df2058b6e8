package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/robby/pmdash/internal/domain"
)

var (
	// TitleStyle is used for screen titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")). // Purple
			MarginBottom(1)

	// SelectedItemStyle is used for highlighted rows and menu entries.
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true)

	// NormalItemStyle is used for non-selected items.
	NormalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// ErrorStyle is used for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// SuccessStyle is used for confirmation toasts.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	// PromptStyle is used for form labels.
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99"))

	// HelpStyle is used for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	selectedCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("205"))

	statBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	statValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2)

	fieldErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	fieldWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// statusColors maps statuses to badge colors.
var statusColors = map[domain.ProjectStatus]lipgloss.Color{
	domain.StatusActive:    lipgloss.Color("34"),  // Green
	domain.StatusCompleted: lipgloss.Color("39"),  // Blue
	domain.StatusOnHold:    lipgloss.Color("214"), // Orange
	domain.StatusPlanning:  lipgloss.Color("141"), // Light purple
	domain.StatusCancelled: lipgloss.Color("196"), // Red
}

func statusBadgeStyle(status domain.ProjectStatus) lipgloss.Style {
	color, ok := statusColors[status]
	if !ok {
		color = lipgloss.Color("241")
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
