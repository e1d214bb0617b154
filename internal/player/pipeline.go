package player

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/llehouerou/silence-with-sound/internal/window"
)

// DefaultQuality is the resampling quality used when none is configured.
const DefaultQuality = 4

// Pipeline turns a playback window into a Clip.
type Pipeline struct {
	// SampleRate is the rate clips are produced at. Zero keeps the file's rate.
	SampleRate beep.SampleRate
	// Quality is passed to beep.Resample.
	Quality int
	Logger  *slog.Logger
}

// NewPipeline returns a pipeline producing clips at the given rate.
func NewPipeline(sampleRate beep.SampleRate, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		SampleRate: sampleRate,
		Quality:    DefaultQuality,
		Logger:     logger,
	}
}

// Build decodes w.Source and applies the window. Each stage is only added
// when it changes the output. The whole selection is decoded before Build
// returns; any decode error fails the build.
func (p *Pipeline) Build(w window.Window) (*Clip, error) {
	source, format, err := openStream(w.Source)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	var s beep.Streamer = source

	if w.Start > 0 {
		if err := skip(source, format.SampleRate.N(w.Start)); err != nil {
			return nil, fmt.Errorf("%w: skip to %s: %w", ErrDecode, w.Start, err)
		}
	}

	if w.Bounded() {
		s = beep.Take(format.SampleRate.N(w.Duration), s)
	}

	if w.Gain != window.DefaultGain {
		s = &effects.Gain{Streamer: s, Gain: w.Gain - 1}
	}

	if p.SampleRate != 0 && p.SampleRate != format.SampleRate {
		quality := p.Quality
		if quality <= 0 {
			quality = DefaultQuality
		}
		s = beep.Resample(quality, format.SampleRate, p.SampleRate, s)
		format.SampleRate = p.SampleRate
	}

	clip := NewClip(format, s)
	if err := source.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	p.Logger.Debug("clip built",
		slog.String("source", w.Source),
		slog.String("window", w.String()),
		slog.Duration("duration", clip.Duration()),
		slog.String("size", humanize.IBytes(uint64(clip.Size()))), //nolint:gosec // size is non-negative
	)
	return clip, nil
}

// skip advances s by n frames of decoded audio. It seeks when the stream
// knows its length and reads otherwise.
func skip(s beep.StreamSeeker, n int) error {
	if l := s.Len(); l > 0 {
		return s.Seek(min(n, l))
	}
	return drain(s, n)
}

func drain(s beep.Streamer, n int) error {
	buf := make([][2]float64, 512)
	for n > 0 {
		k, ok := s.Stream(buf[:min(n, len(buf))])
		n -= k
		if !ok {
			break
		}
	}
	return s.Err()
}
