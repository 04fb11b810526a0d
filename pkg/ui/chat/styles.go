package chat

import (
	"github.com/charmbracelet/lipgloss"

	chatcore "github.com/ShaktiCodes/plugin-powered-chat-hub/pkg/chat"
)

// bubble is a titled box: one per message kind.
type bubble struct {
	title lipgloss.Style
	box   lipgloss.Style
}

func newBubble(border lipgloss.Border, accent, background string) bubble {
	return bubble{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color(accent)).
			Padding(0, 1),
		box: lipgloss.NewStyle().
			Border(border).
			BorderForeground(lipgloss.Color(accent)).
			Background(lipgloss.Color(background)).
			Padding(0, 1),
	}
}

type theme struct {
	header     lipgloss.Style
	headerMeta lipgloss.Style
	divider    lipgloss.Style
	boot       lipgloss.Style
	bootDone   lipgloss.Style

	user      bubble
	assistant bubble
	card      bubble
	failure   bubble

	cardSubtitle lipgloss.Style
	cardLabel    lipgloss.Style

	status     lipgloss.Style
	statusBusy lipgloss.Style
	statusErr  lipgloss.Style
	toasts     map[string]lipgloss.Style

	hint       lipgloss.Style
	inputLabel lipgloss.Style
	input      lipgloss.Style
	viewport   lipgloss.Style
}

func defaultTheme() theme {
	const (
		indigo = "62"
		teal   = "37"
		amber  = "214"
		red    = "160"
		panel  = "235"
	)

	failure := newBubble(lipgloss.NormalBorder(), red, "52")
	failure.title = failure.title.Foreground(lipgloss.Color("231"))

	toast := func(fg, bg string) lipgloss.Style {
		return lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.Color(fg)).
			Background(lipgloss.Color(bg))
	}

	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color(indigo)),
		headerMeta: lipgloss.NewStyle().Foreground(lipgloss.Color("147")),
		divider:    lipgloss.NewStyle().Foreground(lipgloss.Color(indigo)),
		boot:       lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
		bootDone:   lipgloss.NewStyle().Foreground(lipgloss.Color(teal)).Bold(true),

		user:      newBubble(lipgloss.RoundedBorder(), amber, panel),
		assistant: newBubble(lipgloss.RoundedBorder(), teal, panel),
		card:      newBubble(lipgloss.NormalBorder(), indigo, "236"),
		failure:   failure,

		cardSubtitle: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("189")),
		cardLabel:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147")),

		status:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		statusBusy: lipgloss.NewStyle().Foreground(lipgloss.Color(amber)).Bold(true),
		statusErr:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		toasts: map[string]lipgloss.Style{
			chatcore.SeverityWarning:     toast("16", "220"),
			chatcore.SeverityDestructive: toast("231", red),
		},

		hint:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		inputLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(amber)),
		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(amber)).
			Padding(0, 1),
		viewport: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(indigo)).
			Padding(0, 1),
	}
}

// toast picks the style for a notification severity; unknown ones render
// as warnings.
func (t theme) toast(severity string) lipgloss.Style {
	if style, ok := t.toasts[severity]; ok {
		return style
	}
	return t.toasts[chatcore.SeverityWarning]
}
