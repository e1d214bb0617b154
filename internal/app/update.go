package app

import (
	"path/filepath"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/silence-with-sound/internal/errmsg"
	"github.com/llehouerou/silence-with-sound/internal/instance"
	"github.com/llehouerou/silence-with-sound/internal/window"
)

// result is the outcome of a key handler.
type result struct {
	handled bool
	cmd     tea.Cmd
}

var notHandled = result{}

func handled(cmd tea.Cmd) result {
	return result{handled: true, cmd: cmd}
}

// Update handles messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)

	case tickMsg:
		return m, tea.Batch(m.listCmd(), tickCmd())

	case soundsMsg:
		m.applySounds(msg)
		return m, nil

	case activatedMsg:
		if msg.err != nil {
			m.setError(errmsg.FormatWith(errmsg.OpActivate, filepath.Base(msg.source), msg.err))
			return m, nil
		}
		m.focus = msg.id
		m.setStatus("Playing " + filepath.Base(msg.source))
		return m, m.listCmd()

	case appliedMsg:
		if msg.err != nil {
			m.setError(errmsg.Format(errmsg.OpReconfigure, msg.err))
			return m, nil
		}
		delete(m.drafts, msg.id)
		m.setStatus("Settings applied")
		return m, m.listCmd()

	case closedMsg:
		delete(m.drafts, msg.id)
		if msg.err != nil {
			m.setError(errmsg.Format(errmsg.OpDeactivate, msg.err))
		} else {
			m.setStatus("Sound closed")
		}
		return m, m.listCmd()

	case shutdownMsg:
		if msg.err != nil {
			m.setError(errmsg.Format(errmsg.OpShutdown, msg.err))
		}
		return m, tea.Quit
	}

	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applySounds(msg soundsMsg) {
	if msg.err != nil {
		m.setError(errmsg.Format(errmsg.OpListSounds, msg.err))
		return
	}
	m.sounds = msg.sounds

	for id := range m.drafts {
		if !slices.ContainsFunc(m.sounds, func(i instance.Info) bool { return i.ID == id }) {
			delete(m.drafts, id)
		}
	}

	if m.focus != "" {
		if i := slices.IndexFunc(m.sounds, func(i instance.Info) bool { return i.ID == m.focus }); i >= 0 {
			m.active = i
			m.focus = ""
		}
	}
	m.active = min(m.active, max(len(m.sounds)-1, 0))
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.picking = false
		return m, nil
	case msg.String() == "ctrl+c":
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		m.setStatus("Loading " + filepath.Base(path))
		return m, tea.Batch(cmd, m.activateCmd(path, window.Options{}))
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}
	for _, h := range []func(tea.KeyMsg) result{
		m.handleGlobalKeys,
		m.handleTabKeys,
		m.handleEditKeys,
	} {
		if r := h(msg); r.handled {
			return m, r.cmd
		}
	}
	return m, nil
}

func (m *Model) handleGlobalKeys(msg tea.KeyMsg) result {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.setStatus("Stopping all sounds")
		return handled(m.shutdownCmd())
	case key.Matches(msg, m.keys.Open):
		m.picking = true
		return handled(m.picker.Init())
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return handled(nil)
	}
	return notHandled
}

func (m *Model) handleTabKeys(msg tea.KeyMsg) result {
	n := len(m.sounds)
	switch {
	case key.Matches(msg, m.keys.NextTab):
		if n > 0 {
			m.active = (m.active + 1) % n
		}
		return handled(nil)
	case key.Matches(msg, m.keys.PrevTab):
		if n > 0 {
			m.active = (m.active - 1 + n) % n
		}
		return handled(nil)
	}
	return notHandled
}

func (m *Model) handleEditKeys(msg tea.KeyMsg) result {
	info, ok := m.current()
	if !ok {
		return notHandled
	}
	d := m.draftFor(info)

	switch {
	case key.Matches(msg, m.keys.VolUp):
		d = d.stepVolume(volumeStep)
	case key.Matches(msg, m.keys.VolDown):
		d = d.stepVolume(-volumeStep)
	case key.Matches(msg, m.keys.StartBack):
		d = d.stepStart(-offsetStep)
	case key.Matches(msg, m.keys.StartFwd):
		d = d.stepStart(offsetStep)
	case key.Matches(msg, m.keys.Longer):
		d = d.stepDuration(offsetStep)
	case key.Matches(msg, m.keys.Shorter):
		d = d.stepDuration(-offsetStep)
	case key.Matches(msg, m.keys.Apply):
		m.setStatus("Applying settings")
		return handled(m.reconfigureCmd(info.ID, d.options()))
	case key.Matches(msg, m.keys.Close):
		return handled(m.deactivateCmd(info.ID))
	default:
		return notHandled
	}

	m.drafts[info.ID] = d
	return handled(nil)
}
