package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/spiffcs/ghissues/internal/controller"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CBD5E1"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#475569"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#334155")).
			Foreground(lipgloss.Color("#F1F5F9")).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")).
			Bold(true)

	openStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22C55E"))

	closedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A78BFA"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true)

	tabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")).
			Bold(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6B7280"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#475569"))

	paneFocusedStyle = paneStyle.
				BorderForeground(lipgloss.Color("#60A5FA"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F1F5F9"))

	authorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#93C5FD"))

	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F59E0B")).
			Padding(0, 1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	statusStyles = map[controller.Severity]lipgloss.Style{
		controller.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")),
		controller.SeverityProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		controller.SeveritySuccess:  lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		controller.SeverityWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		controller.SeverityError:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)
