package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/llehouerou/silence-with-sound/internal/interval"
	"github.com/llehouerou/silence-with-sound/internal/player"
)

// Blocking owns its goroutine: it sleeps for a random wait, plays the clip
// to completion, and repeats. With Once set it plays a single time without
// waiting first.
type Blocking struct {
	Clip    *player.Clip
	Output  player.Output
	Sampler *interval.Sampler
	Range   interval.Range
	Once    bool
	Logger  *slog.Logger

	state atomic.Int32
	plays atomic.Int64
}

// State returns the current state. Safe to call from any goroutine.
func (b *Blocking) State() State {
	return State(b.state.Load())
}

// Plays returns how many times the clip has been played to completion.
func (b *Blocking) Plays() int {
	return int(b.plays.Load())
}

// Run drives the cycle. It only returns after a single play in Once mode, or
// when ctx is cancelled.
func (b *Blocking) Run(ctx context.Context) error {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defer b.state.Store(int32(Terminated))

	if b.Once {
		return b.play(ctx, logger)
	}

	for {
		wait := b.Sampler.Next(b.Range)
		b.state.Store(int32(Waiting))
		logger.Debug("waiting", slog.Duration("wait", wait))
		if err := sleep(ctx, wait); err != nil {
			return err
		}
		if err := b.play(ctx, logger); err != nil {
			return err
		}
	}
}

func (b *Blocking) play(ctx context.Context, logger *slog.Logger) error {
	b.state.Store(int32(Playing))
	logger.Info("playing", slog.Duration("duration", b.Clip.Duration()))
	b.Output.Append(b.Clip.Streamer())
	if err := b.Output.Wait(ctx); err != nil {
		return err
	}
	b.plays.Add(1)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
