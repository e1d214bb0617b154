// Package interval draws random waits between plays.
package interval

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Range is a half-open interval [Min, Max).
type Range struct {
	Min time.Duration
	Max time.Duration
}

var (
	// Idle separates repeats in the single-clip blocking loop.
	Idle = Range{Min: 0, Max: 5 * time.Minute}
	// Short separates the end of one clip from the next in interactive mode.
	Short = Range{Min: 0, Max: 5 * time.Second}
)

var ErrInvalidRange = errors.New("invalid interval range")

// Validate checks that the range is non-negative and non-empty.
func (r Range) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("%w: min %s is negative", ErrInvalidRange, r.Min)
	}
	if r.Max <= r.Min {
		return fmt.Errorf("%w: max %s must be greater than min %s", ErrInvalidRange, r.Max, r.Min)
	}
	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Min, r.Max)
}

// Sampler draws uniform durations. Safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a sampler seeded from the clock.
func NewSampler() *Sampler {
	now := uint64(time.Now().UnixNano()) //nolint:gosec // seed only
	return NewSeededSampler(now)
}

// NewSeededSampler returns a deterministic sampler, for tests.
func NewSeededSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns a duration drawn uniformly from [r.Min, r.Max).
// An empty range yields r.Min.
func (s *Sampler) Next(r Range) time.Duration {
	span := r.Max - r.Min
	if span <= 0 {
		return r.Min
	}
	s.mu.Lock()
	n := s.rng.Int64N(int64(span))
	s.mu.Unlock()
	return r.Min + time.Duration(n)
}
