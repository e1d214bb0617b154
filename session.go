package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/llehouerou/silence-with-sound/internal/instance"
	"github.com/llehouerou/silence-with-sound/internal/state"
)

// sessionRegistry saves the open sounds the first time everything is torn
// down, whether that is a quit from the shell or a signal.
type sessionRegistry struct {
	*instance.Registry
	store  *state.Store
	logger *slog.Logger
	once   sync.Once
}

func (r *sessionRegistry) DeactivateAll(ctx context.Context) error {
	r.once.Do(func() { r.save(ctx) })
	return r.Registry.DeactivateAll(ctx)
}

func (r *sessionRegistry) save(ctx context.Context) {
	infos, err := r.List(ctx)
	if err != nil {
		r.logger.Warn("save session", slog.Any("error", err))
		return
	}
	sounds := make([]state.Sound, len(infos))
	for i, info := range infos {
		sounds[i] = state.Sound{Source: info.Source, Options: info.Options}
	}
	if err := r.store.SaveSession(sounds); err != nil {
		r.logger.Warn("save session", slog.Any("error", err))
		return
	}
	r.logger.Info("session saved", slog.Int("sounds", len(sounds)))
}

// openSession opens the session store and picks the sounds to start with:
// the given files, or the saved session when there are none. A store that
// cannot be opened only disables saving.
func openSession(path string, files []string, logger *slog.Logger) (*state.Store, []state.Sound) {
	initial := make([]state.Sound, len(files))
	for i, f := range files {
		initial[i] = state.Sound{Source: f}
	}

	store, err := state.Open(path)
	if err != nil {
		logger.Warn("session store unavailable", slog.String("path", path), slog.Any("error", err))
		return nil, initial
	}
	if len(files) > 0 {
		return store, initial
	}

	saved, err := store.LoadSession()
	if err != nil {
		logger.Warn("load session", slog.Any("error", err))
		return store, nil
	}
	return store, saved
}
