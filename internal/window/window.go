// Package window resolves user trim and volume settings into a playback window.
package window

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Unbounded marks a window that plays to the end of the file.
const Unbounded time.Duration = math.MaxInt64

// DefaultGain leaves sample amplitude untouched.
const DefaultGain = 1.0

// ErrConfig is wrapped by every resolution error.
var ErrConfig = errors.New("invalid playback window")

var (
	ErrNoSource          = fmt.Errorf("%w: no audio file given", ErrConfig)
	ErrConflictingLength = fmt.Errorf("%w: end and duration are mutually exclusive", ErrConfig)
	ErrEndBeforeStart    = fmt.Errorf("%w: end is before start", ErrConfig)
	ErrNegative          = fmt.Errorf("%w: negative offset", ErrConfig)
	ErrInvalidVolume     = fmt.Errorf("%w: volume must be a finite number", ErrConfig)
)

// Window is the resolved portion of a clip and the gain to play it at.
type Window struct {
	Source   string
	Start    time.Duration
	Duration time.Duration // relative to Start, or Unbounded
	Gain     float64
}

// Bounded reports whether the window stops before the end of the file.
func (w Window) Bounded() bool {
	return w.Duration != Unbounded
}

// End returns the absolute end offset, or Unbounded.
func (w Window) End() time.Duration {
	if !w.Bounded() {
		return Unbounded
	}
	return w.Start + w.Duration
}

func (w Window) String() string {
	end := "eof"
	if w.Bounded() {
		end = w.End().String()
	}
	return fmt.Sprintf("[%s, %s) x%.2f", w.Start, end, w.Gain)
}

// Options holds the raw, partially-set user inputs. Nil means unset.
type Options struct {
	Volume   *float64
	Start    *time.Duration
	End      *time.Duration
	Duration *time.Duration
}

// Resolve validates opts and normalizes them into a Window for source.
// End and Duration are mutually exclusive; End is converted to a duration
// relative to Start.
func Resolve(source string, opts Options) (Window, error) {
	if source == "" {
		return Window{}, ErrNoSource
	}
	if opts.End != nil && opts.Duration != nil {
		return Window{}, ErrConflictingLength
	}

	w := Window{
		Source:   source,
		Duration: Unbounded,
		Gain:     DefaultGain,
	}

	if opts.Volume != nil {
		v := *opts.Volume
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Window{}, fmt.Errorf("%w: %v", ErrInvalidVolume, v)
		}
		w.Gain = v
	}

	if opts.Start != nil {
		if *opts.Start < 0 {
			return Window{}, fmt.Errorf("%w: start %s", ErrNegative, *opts.Start)
		}
		w.Start = *opts.Start
	}

	switch {
	case opts.Duration != nil:
		if *opts.Duration < 0 {
			return Window{}, fmt.Errorf("%w: duration %s", ErrNegative, *opts.Duration)
		}
		w.Duration = *opts.Duration
	case opts.End != nil:
		if *opts.End < w.Start {
			return Window{}, fmt.Errorf("%w: end %s, start %s", ErrEndBeforeStart, *opts.End, w.Start)
		}
		w.Duration = *opts.End - w.Start
	}

	return w, nil
}

// Ptr returns a pointer to v, for filling Options literals.
func Ptr[T any](v T) *T {
	return &v
}
