package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kerbaras/mangasync/pkg/data"
)

var (
	// Color palette
	Primary    = lipgloss.Color("#FF6B9D")
	Secondary  = lipgloss.Color("#C792EA")
	Success    = lipgloss.Color("#C3E88D")
	Warning    = lipgloss.Color("#FFCB6B")
	Error      = lipgloss.Color("#F07178")
	Info       = lipgloss.Color("#82AAFF")
	Muted      = lipgloss.Color("#546E7A")
	Foreground = lipgloss.Color("#EEFFFF")

	RoundedBorder = lipgloss.RoundedBorder()
	ThickBorder   = lipgloss.ThickBorder()
)

var (
	TitleStyle = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true).
		MarginBottom(1)

	TextStyle = lipgloss.NewStyle().
		Foreground(Foreground)

	MutedStyle = lipgloss.NewStyle().
		Foreground(Muted)

	CardStyle = lipgloss.NewStyle().
		Border(RoundedBorder).
		BorderForeground(Secondary).
		Padding(0, 2)

	ActiveCardStyle = lipgloss.NewStyle().
		Border(ThickBorder).
		BorderForeground(Primary).
		Padding(0, 2)

	StatusActive = lipgloss.NewStyle().
		Foreground(Info).
		Bold(true)

	StatusCompleted = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	StatusWarning = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)

	StatusError = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	ProgressBarStyle = lipgloss.NewStyle().
		Foreground(Primary)

	ActiveTabStyle = lipgloss.NewStyle().
		Foreground(Primary).
		Background(lipgloss.Color("#37474F")).
		Padding(0, 2).
		Bold(true)

	InactiveTabStyle = lipgloss.NewStyle().
		Foreground(Muted).
		Padding(0, 2)

	HelpStyle = lipgloss.NewStyle().
		Foreground(Muted).
		Italic(true).
		MarginTop(1)
)

// ListStatusStyle colors a reading status.
func ListStatusStyle(status data.Status) lipgloss.Style {
	switch status {
	case data.StatusReading, data.StatusRereading:
		return StatusActive
	case data.StatusCompleted:
		return StatusCompleted
	case data.StatusPaused, data.StatusPlanToRead:
		return StatusWarning
	case data.StatusDropped, data.StatusWontRead:
		return StatusError
	default:
		return MutedStyle
	}
}

// OutcomeStyle colors a request outcome. A missing token is a warning: the
// user only has to log in.
func OutcomeStyle(outcome data.Outcome) lipgloss.Style {
	switch {
	case outcome.OK():
		return StatusCompleted
	case outcome == data.OutcomeMissingToken:
		return StatusWarning
	default:
		return StatusError
	}
}
