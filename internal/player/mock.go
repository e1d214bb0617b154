// internal/player/mock.go
package player

import (
	"context"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// Mock is a test double for Output. Appended streams are drained
// immediately; Wait sleeps for PlayTime to stand in for playback.
type Mock struct {
	mu       sync.Mutex
	playTime time.Duration
	appends  []time.Time
	frames   []int
	waits    int
	closed   bool
}

// NewMock creates a mock output whose Wait lasts playTime.
func NewMock(playTime time.Duration) *Mock {
	return &Mock{playTime: playTime}
}

func (m *Mock) Append(s beep.Streamer) {
	n := 0
	buf := make([][2]float64, 512)
	for {
		k, ok := s.Stream(buf)
		n += k
		if !ok {
			break
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.appends = append(m.appends, time.Now())
	m.frames = append(m.frames, n)
}

func (m *Mock) Wait(ctx context.Context) error {
	m.mu.Lock()
	m.waits++
	d := m.playTime
	m.mu.Unlock()

	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// Appends returns the time of every Append call.
func (m *Mock) Appends() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.appends...)
}

// Frames returns the number of frames drained from each appended stream.
func (m *Mock) Frames() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.frames...)
}

func (m *Mock) Waits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waits
}

func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Output at compile time.
var _ Output = (*Mock)(nil)
