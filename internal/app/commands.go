package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/silence-with-sound/internal/instance"
	"github.com/llehouerou/silence-with-sound/internal/window"
)

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Registry calls block on decoding or on the event loop, so they all run as
// commands off the UI goroutine.

func (m Model) listCmd() tea.Cmd {
	ctx, r := m.ctx, m.registry
	return func() tea.Msg {
		sounds, err := r.List(ctx)
		return soundsMsg{sounds: sounds, err: err}
	}
}

func (m Model) activateCmd(source string, opts window.Options) tea.Cmd {
	ctx, r := m.ctx, m.registry
	return func() tea.Msg {
		id, err := r.Activate(ctx, source, opts)
		return activatedMsg{source: source, id: id, err: err}
	}
}

func (m Model) reconfigureCmd(id instance.ID, opts window.Options) tea.Cmd {
	ctx, r := m.ctx, m.registry
	return func() tea.Msg {
		return appliedMsg{id: id, err: r.Reconfigure(ctx, id, opts)}
	}
}

func (m Model) deactivateCmd(id instance.ID) tea.Cmd {
	ctx, r := m.ctx, m.registry
	return func() tea.Msg {
		return closedMsg{id: id, err: r.Deactivate(ctx, id)}
	}
}

func (m Model) shutdownCmd() tea.Cmd {
	ctx, r := m.ctx, m.registry
	return func() tea.Msg {
		return shutdownMsg{err: r.DeactivateAll(ctx)}
	}
}
