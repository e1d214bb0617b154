// Package app implements the interactive shell: one tab per active sound,
// each with its own editable playback window.
package app

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/silence-with-sound/internal/instance"
	"github.com/llehouerou/silence-with-sound/internal/player"
	"github.com/llehouerou/silence-with-sound/internal/state"
	"github.com/llehouerou/silence-with-sound/internal/window"
)

const (
	refreshInterval = 500 * time.Millisecond

	volumeStep = 0.1
	maxVolume  = 10.0
	offsetStep = 500 * time.Millisecond
)

// Registry is the set of running sounds the shell drives.
type Registry interface {
	Activate(ctx context.Context, source string, opts window.Options) (instance.ID, error)
	Reconfigure(ctx context.Context, id instance.ID, opts window.Options) error
	Deactivate(ctx context.Context, id instance.ID) error
	DeactivateAll(ctx context.Context) error
	List(ctx context.Context) ([]instance.Info, error)
}

// draft holds edits to a sound's window that have not been applied yet.
type draft struct {
	volume   float64
	start    time.Duration
	duration time.Duration // 0 plays to the end of the file
}

func draftFrom(w window.Window) draft {
	d := draft{volume: w.Gain, start: w.Start}
	if w.Bounded() {
		d.duration = w.Duration
	}
	return d
}

func (d draft) options() window.Options {
	opts := window.Options{
		Volume: window.Ptr(d.volume),
		Start:  window.Ptr(d.start),
	}
	if d.duration > 0 {
		opts.Duration = window.Ptr(d.duration)
	}
	return opts
}

func (d draft) stepVolume(delta float64) draft {
	v := math.Round((d.volume+delta)*10) / 10
	d.volume = min(max(v, 0), maxVolume)
	return d
}

func (d draft) stepStart(delta time.Duration) draft {
	d.start = max(d.start+delta, 0)
	return d
}

func (d draft) stepDuration(delta time.Duration) draft {
	d.duration = max(d.duration+delta, 0)
	return d
}

// Model is the root model of the shell.
type Model struct {
	ctx      context.Context
	registry Registry
	initial  []state.Sound

	sounds []instance.Info
	drafts map[instance.ID]draft
	active int
	focus  instance.ID // selected once it shows up in a refresh

	picker  filepicker.Model
	picking bool

	keys keyMap
	help help.Model

	status    string
	statusErr bool
	quitting  bool

	width  int
	height int
}

// New creates the shell. sounds are activated when it starts.
func New(ctx context.Context, registry Registry, sounds []state.Sound) Model {
	fp := filepicker.New()
	fp.AllowedTypes = player.SupportedExtensions()
	if wd, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = wd
	}

	return Model{
		ctx:      ctx,
		registry: registry,
		initial:  sounds,
		drafts:   make(map[instance.ID]draft),
		picker:   fp,
		keys:     newKeyMap(),
		help:     help.New(),
	}
}

// Init activates the initial sounds and starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.initial)+2)
	for _, snd := range m.initial {
		cmds = append(cmds, m.activateCmd(snd.Source, snd.Options))
	}
	cmds = append(cmds, m.listCmd(), tickCmd())
	return tea.Batch(cmds...)
}

// current returns the sound of the selected tab.
func (m Model) current() (instance.Info, bool) {
	if m.active < 0 || m.active >= len(m.sounds) {
		return instance.Info{}, false
	}
	return m.sounds[m.active], true
}

// draftFor returns the pending edits for info, or its applied window.
func (m Model) draftFor(info instance.Info) draft {
	if d, ok := m.drafts[info.ID]; ok {
		return d
	}
	return draftFrom(info.Window)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}
