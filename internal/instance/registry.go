// Package instance keeps the set of independently scheduled clips that play
// side by side in interactive mode.
package instance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/llehouerou/silence-with-sound/internal/eventloop"
	"github.com/llehouerou/silence-with-sound/internal/interval"
	"github.com/llehouerou/silence-with-sound/internal/player"
	"github.com/llehouerou/silence-with-sound/internal/scheduler"
	"github.com/llehouerou/silence-with-sound/internal/window"
)

// ErrUnknownInstance is returned for an ID that is not active.
var ErrUnknownInstance = errors.New("unknown instance")

// ID identifies an active instance. It is opaque to callers.
type ID string

// Builder turns a window into a playable clip.
type Builder interface {
	Build(w window.Window) (*player.Clip, error)
}

// OutputFunc opens a private output for one instance.
type OutputFunc func() (player.Output, error)

// Info is a snapshot of one instance, safe to hand to the UI.
type Info struct {
	ID       ID
	Source   string
	Title    string
	Window   window.Window
	Options  window.Options
	Clip     time.Duration
	State    scheduler.State
	Plays    int
	NextPlay time.Time
}

type entry struct {
	id     ID
	title  string
	window window.Window
	opts   window.Options
	clip   *player.Clip
	out    player.Output
	sched  *scheduler.Cooperative
}

// Registry owns the active instances. Instance state is only touched on the
// event loop, so timer callbacks and registry calls never interleave.
// Registry methods block and must not be called from the loop.
type Registry struct {
	loop     *eventloop.Loop
	builder  Builder
	output   OutputFunc
	sampler  *interval.Sampler
	rng      interval.Range
	logger   *slog.Logger
	titleFor func(path string) string

	// loop-only
	entries map[ID]*entry
	order   []ID
}

// Option configures a Registry.
type Option func(*Registry)

// WithRange sets the random gap between plays. Defaults to interval.Short.
func WithRange(r interval.Range) Option {
	return func(reg *Registry) { reg.rng = r }
}

// WithSampler replaces the clock-seeded sampler.
func WithSampler(s *interval.Sampler) Option {
	return func(reg *Registry) { reg.sampler = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(reg *Registry) { reg.logger = l }
}

// WithTitles sets how instance titles are derived from file paths.
func WithTitles(fn func(path string) string) Option {
	return func(reg *Registry) { reg.titleFor = fn }
}

// NewRegistry creates an empty registry. loop must be running.
func NewRegistry(loop *eventloop.Loop, builder Builder, output OutputFunc, opts ...Option) *Registry {
	r := &Registry{
		loop:     loop,
		builder:  builder,
		output:   output,
		rng:      interval.Short,
		logger:   slog.Default(),
		titleFor: player.ReadTitle,
		entries:  make(map[ID]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sampler == nil {
		r.sampler = interval.NewSampler()
	}
	return r
}

// prepare resolves and builds a clip off the loop.
func (r *Registry) prepare(source string, opts window.Options) (window.Window, *player.Clip, player.Output, error) {
	w, err := window.Resolve(source, opts)
	if err != nil {
		return window.Window{}, nil, nil, err
	}
	clip, err := r.builder.Build(w)
	if err != nil {
		return window.Window{}, nil, nil, err
	}
	out, err := r.output()
	if err != nil {
		return window.Window{}, nil, nil, fmt.Errorf("open output: %w", err)
	}
	return w, clip, out, nil
}

// Activate decodes source with opts and starts scheduling it. On failure no
// instance is created and other instances are unaffected.
func (r *Registry) Activate(ctx context.Context, source string, opts window.Options) (ID, error) {
	w, clip, out, err := r.prepare(source, opts)
	if err != nil {
		return "", err
	}

	e := &entry{
		id:     ID(uuid.NewString()),
		title:  r.titleFor(source),
		window: w,
		opts:   opts,
		clip:   clip,
		out:    out,
	}
	e.sched = scheduler.NewCooperative(r.loop, clip, out, r.sampler, r.rng, r.logger.With(slog.String("instance", string(e.id))))

	err = r.loop.Do(ctx, func() {
		r.entries[e.id] = e
		r.order = append(r.order, e.id)
		e.sched.Start()
	})
	if err != nil {
		_ = out.Close()
		return "", err
	}

	r.logger.Info("instance activated",
		slog.String("instance", string(e.id)),
		slog.String("source", source),
		slog.String("window", w.String()),
	)
	return e.id, nil
}

// Reconfigure rebuilds the instance's clip with new settings.
//
// Ordering: the new clip is decoded first, while the old schedule keeps
// running and may still play during the build. If the build fails the
// instance is left untouched. Only then, in one step on the loop, is the
// pending wait cancelled and the new clip and output swapped in. The old
// output is released after the swap.
func (r *Registry) Reconfigure(ctx context.Context, id ID, opts window.Options) error {
	var source string
	if err := r.loop.Do(ctx, func() {
		if e, ok := r.entries[id]; ok {
			source = e.window.Source
		}
	}); err != nil {
		return err
	}
	if source == "" {
		return fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}

	w, clip, out, err := r.prepare(source, opts)
	if err != nil {
		return err
	}

	var old player.Output
	found := false
	err = r.loop.Do(ctx, func() {
		e, ok := r.entries[id]
		if !ok {
			return
		}
		found = true
		e.sched.Stop()
		old = e.out

		e.window = w
		e.opts = opts
		e.clip = clip
		e.out = out
		e.sched = scheduler.NewCooperative(r.loop, clip, out, r.sampler, r.rng, r.logger.With(slog.String("instance", string(id))))
		e.sched.Start()
	})
	if err != nil || !found {
		_ = out.Close()
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}

	if err := old.Close(); err != nil {
		r.logger.Warn("close output", slog.String("instance", string(id)), slog.Any("error", err))
	}
	r.logger.Info("instance reconfigured",
		slog.String("instance", string(id)),
		slog.String("window", w.String()),
	)
	return nil
}

// Deactivate cancels the instance's pending wait and releases its output.
func (r *Registry) Deactivate(ctx context.Context, id ID) error {
	var e *entry
	if err := r.loop.Do(ctx, func() {
		e = r.remove(id)
	}); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}
	r.logger.Info("instance deactivated", slog.String("instance", string(id)))
	return e.out.Close()
}

// DeactivateAll tears down every instance. Used on shutdown.
func (r *Registry) DeactivateAll(ctx context.Context) error {
	var removed []*entry
	if err := r.loop.Do(ctx, func() {
		for _, id := range append([]ID(nil), r.order...) {
			removed = append(removed, r.remove(id))
		}
	}); err != nil {
		return err
	}

	var errs []error
	for _, e := range removed {
		if err := e.out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", e.id, err))
		}
	}
	r.logger.Info("all instances deactivated", slog.Int("count", len(removed)))
	return errors.Join(errs...)
}

// remove stops and unlinks an entry. Loop-only.
func (r *Registry) remove(id ID) *entry {
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	e.sched.Stop()
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return e
}

// List returns a snapshot of the active instances in activation order.
func (r *Registry) List(ctx context.Context) ([]Info, error) {
	var infos []Info
	err := r.loop.Do(ctx, func() {
		infos = make([]Info, 0, len(r.order))
		for _, id := range r.order {
			e := r.entries[id]
			infos = append(infos, Info{
				ID:       e.id,
				Source:   e.window.Source,
				Title:    e.title,
				Window:   e.window,
				Options:  e.opts,
				Clip:     e.clip.Duration(),
				State:    e.sched.State(),
				Plays:    e.sched.Plays(),
				NextPlay: e.sched.Next(),
			})
		}
	})
	return infos, err
}
