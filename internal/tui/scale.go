package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/equilibrium/internal/rubric"
)

// ScaleLabels name the answer scale from 1 to 5.
var ScaleLabels = [rubric.MaxAnswer]string{"Not at all", "A little", "Somewhat", "Very", "Extremely"}

// Scale is a 1..5 answer selector. Arrow keys move, digits pick directly,
// enter submits.
type Scale struct {
	Selected  int // 0-based
	Submitted bool
}

// NewScale starts on the middle of the scale.
func NewScale() Scale {
	return Scale{Selected: 2}
}

// Value returns the selected answer on the 1..5 scale.
func (s Scale) Value() int { return s.Selected + rubric.MinAnswer }

func (s Scale) Update(msg tea.Msg) Scale {
	if s.Submitted {
		return s
	}
	k, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s
	}

	switch key := k.String(); key {
	case "up", "k", "left", "h":
		if s.Selected > 0 {
			s.Selected--
		}
	case "down", "j", "right", "l":
		if s.Selected < len(ScaleLabels)-1 {
			s.Selected++
		}
	case "enter":
		s.Submitted = true
	case "1", "2", "3", "4", "5":
		s.Selected = int(key[0] - '1')
		s.Submitted = true
	}
	return s
}

func (s Scale) View() string {
	var b strings.Builder
	for i, label := range ScaleLabels {
		line := fmt.Sprintf("%d  %s", i+1, label)
		if i == s.Selected {
			b.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(optionStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// progressBar renders done/total as a filled track of the given width.
func progressBar(done, total, width int) string {
	if width < 4 {
		width = 4
	}
	filled := 0
	if total > 0 {
		filled = min(width, width*done/total)
	}
	return lipgloss.NewStyle().Background(colorPrimary).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(colorTrack).Render(strings.Repeat(" ", width-filled))
}

func bandColor(score int) lipgloss.Style {
	switch rubric.BandOf(score) {
	case rubric.BandLow:
		return lipgloss.NewStyle().Foreground(colorLow).Bold(true)
	case rubric.BandModerate:
		return lipgloss.NewStyle().Foreground(colorMid).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(colorHigh).Bold(true)
	}
}
