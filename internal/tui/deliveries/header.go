package deliveries

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func renderHeader(stats Stats, activity Activity, theme Theme, width int) string {
	title := theme.Title.Render("pushbridge deliveries")

	counts := strings.Join([]string{
		theme.Accepted.Render(fmt.Sprintf("%d accepted", stats.Accepted)),
		theme.Failed.Render(fmt.Sprintf("%d callback errors", stats.Failed)),
		theme.Rejected.Render(fmt.Sprintf("%d rejected", stats.Rejected)),
	}, theme.Dim.Render(" │ "))

	polled := theme.Dim.Render("never polled")
	if !stats.LastPoll.IsZero() {
		polled = theme.Dim.Render("polled " + stats.LastPoll.Local().Format("15:04:05"))
	}

	line := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", counts, "  ", activity.Render(theme), "  ", polled)
	return theme.Border.Width(max(20, width-6)).Render(line)
}
