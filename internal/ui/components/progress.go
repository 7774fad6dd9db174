// Package components renders small reusable pieces of CLI output.
package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillforge/internal/ui/theme"
)

// TimeBar shows how much of a countdown is left.
type TimeBar struct {
	Remaining int
	Total     int
	Width     int
}

// View renders the bar followed by the seconds left.
func (b TimeBar) View() string {
	width := max(b.Width, 4)
	frac := 0.0
	if b.Total > 0 {
		frac = float64(b.Remaining) / float64(b.Total)
	}
	filled := min(max(int(float64(width)*frac), 0), width)

	color := theme.Secondary
	if frac < 0.25 {
		color = theme.Error
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", width-filled))

	return bar + lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(" %s", Clock(b.Remaining)))
}

// Clock formats seconds as m:ss.
func Clock(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
