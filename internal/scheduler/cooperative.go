package scheduler

import (
	"log/slog"
	"time"

	"github.com/llehouerou/silence-with-sound/internal/eventloop"
	"github.com/llehouerou/silence-with-sound/internal/interval"
	"github.com/llehouerou/silence-with-sound/internal/player"
)

// Cooperative schedules one clip on a shared event loop without ever
// blocking it. Each wait is a random draw plus the clip's own duration, so
// the wait covers the clip that was just queued.
//
// All methods must be called on the loop.
type Cooperative struct {
	loop    *eventloop.Loop
	clip    *player.Clip
	out     player.Output
	sampler *interval.Sampler
	rng     interval.Range
	logger  *slog.Logger

	timer *eventloop.Timer
	state State
	plays int
	next  time.Time
}

// NewCooperative creates a scheduler in the Idle state.
func NewCooperative(
	loop *eventloop.Loop,
	clip *player.Clip,
	out player.Output,
	sampler *interval.Sampler,
	rng interval.Range,
	logger *slog.Logger,
) *Cooperative {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cooperative{
		loop:    loop,
		clip:    clip,
		out:     out,
		sampler: sampler,
		rng:     rng,
		logger:  logger,
	}
}

// Start arms the first wait. Starting a running or stopped scheduler does
// nothing.
func (c *Cooperative) Start() {
	if c.state != Idle {
		return
	}
	c.arm()
}

// Stop cancels the pending wait. Nothing is appended to the output after
// Stop returns.
func (c *Cooperative) Stop() {
	c.timer.Cancel()
	c.timer = nil
	c.state = Terminated
}

func (c *Cooperative) State() State { return c.state }

// Plays returns how many times the clip has been queued.
func (c *Cooperative) Plays() int { return c.plays }

// Next returns when the pending wait expires, or the zero time.
func (c *Cooperative) Next() time.Time {
	if !c.timer.Pending() {
		return time.Time{}
	}
	return c.next
}

func (c *Cooperative) arm() {
	c.timer.Cancel()
	wait := c.sampler.Next(c.rng) + c.clip.Duration()
	c.next = time.Now().Add(wait)
	c.timer = c.loop.AfterFunc(wait, c.fire)
	c.state = Waiting
	c.logger.Debug("armed", slog.Duration("wait", wait))
}

func (c *Cooperative) fire() {
	if c.state != Waiting {
		return
	}
	c.out.Append(c.clip.Streamer())
	c.plays++
	c.logger.Debug("queued clip", slog.Int("plays", c.plays))
	c.arm()
}
