package player

import (
	"context"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Sink is one instance's private output. Streams appended to it are mixed
// together and the result is fed to the speaker. While open it streams
// silence when nothing is queued, so it stays attached to the speaker.
//
// The mixer is only touched under the speaker lock.
type Sink struct {
	mixer  beep.Mixer
	closed bool

	mu      sync.Mutex
	pending int
	idle    chan struct{}
}

var _ Output = (*Sink)(nil)

func newSink() *Sink {
	idle := make(chan struct{})
	close(idle)
	return &Sink{idle: idle}
}

// Append queues s for playback and returns immediately.
func (s *Sink) Append(st beep.Streamer) {
	s.mu.Lock()
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
	s.mu.Unlock()

	speaker.Lock()
	defer speaker.Unlock()
	if s.closed {
		s.finish()
		return
	}
	s.mixer.Add(beep.Seq(st, beep.Callback(s.finish)))
}

// Wait blocks until every appended stream has played.
func (s *Sink) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drops anything still queued and detaches the sink from the speaker.
func (s *Sink) Close() error {
	speaker.Lock()
	s.closed = true
	s.mixer.Clear()
	speaker.Unlock()

	s.mu.Lock()
	if s.pending > 0 {
		s.pending = 0
		close(s.idle)
	}
	s.mu.Unlock()
	return nil
}

// finish runs on the speaker goroutine when a queued stream ends.
func (s *Sink) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == 0 {
		return
	}
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}

// Stream implements beep.Streamer.
func (s *Sink) Stream(samples [][2]float64) (n int, ok bool) {
	if s.closed {
		return 0, false
	}
	n, _ = s.mixer.Stream(samples)
	clear(samples[n:])
	return len(samples), true
}

// Err implements beep.Streamer.
func (s *Sink) Err() error {
	return nil
}
