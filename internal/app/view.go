package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/silence-with-sound/internal/instance"
	"github.com/llehouerou/silence-with-sound/internal/scheduler"
	"github.com/llehouerou/silence-with-sound/internal/ui/styles"
)

const (
	appTitle   = "silence-with-sound"
	meterWidth = 20
)

// View renders the shell.
func (m Model) View() string {
	t := styles.T()
	s := t.S()

	var b strings.Builder
	b.WriteString(styles.Gradient(appTitle, t.Primary, t.Warning))
	b.WriteString("\n\n")

	switch {
	case m.picking:
		b.WriteString(s.Title.Render("Open a sound"))
		b.WriteString(s.Muted.Render("  (esc to cancel)"))
		b.WriteString("\n")
		b.WriteString(m.picker.View())
	case len(m.sounds) == 0:
		b.WriteString(s.Muted.Render("No sounds playing. Press n to open one."))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderTabs())
		b.WriteString("\n")
		if info, ok := m.current(); ok {
			b.WriteString(m.renderSound(info))
		}
		b.WriteString("\n")
	}

	if m.status != "" {
		style := s.Muted
		if m.statusErr {
			style = s.Error
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.status))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderTabs() string {
	s := styles.T().S()
	tabs := make([]string, len(m.sounds))
	for i, info := range m.sounds {
		style := s.Tab
		if i == m.active {
			style = s.ActiveTab
		}
		tabs[i] = style.Render(tabLabel(info))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func tabLabel(info instance.Info) string {
	if info.Title != "" {
		return info.Title
	}
	return filepath.Base(info.Source)
}

func (m Model) renderSound(info instance.Info) string {
	t := styles.T()
	s := t.S()
	d := m.draftFor(info)

	row := func(label, value string) string {
		return s.Label.Render(label) + s.Value.Render(value)
	}

	state := s.Success.Render(info.State.String())
	if info.State == scheduler.Waiting && !info.NextPlay.IsZero() {
		state += s.Muted.Render(fmt.Sprintf(", next in %s", time.Until(info.NextPlay).Round(100*time.Millisecond)))
	}

	length := "to end of file"
	if d.duration > 0 {
		length = d.duration.String()
	}

	lines := []string{
		row("File", info.Source),
		s.Label.Render("State") + state,
		row("Played", fmt.Sprintf("%d times", info.Plays)),
		row("Clip", info.Clip.Round(time.Millisecond).String()),
		row("Window", info.Window.String()),
		"",
		s.Label.Render("Volume") + t.Meter(d.volume, maxVolume, meterWidth) + s.Value.Render(fmt.Sprintf(" %.1f", d.volume)),
		row("Start", d.start.String()),
		row("Length", length),
	}
	if d != draftFrom(info.Window) {
		lines = append(lines, "", s.Warning.Render("Modified, press enter to apply"))
	}

	width := max(m.width-2, 0)
	return s.Panel.Width(width).Render(strings.Join(lines, "\n"))
}
