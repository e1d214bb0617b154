package player

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultSampleRate is the speaker rate when none is configured.
const DefaultSampleRate beep.SampleRate = 44100

// Device is the process-wide speaker. Sinks opened on it are mixed together.
type Device struct {
	sampleRate beep.SampleRate
	logger     *slog.Logger
}

var (
	deviceMu sync.Mutex
	device   *Device
)

// OpenDevice initializes the speaker on first use and returns the shared
// device. Later calls return the same device whatever rate they ask for.
func OpenDevice(sampleRate beep.SampleRate, buffer time.Duration, logger *slog.Logger) (*Device, error) {
	deviceMu.Lock()
	defer deviceMu.Unlock()

	if device != nil {
		return device, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if buffer <= 0 {
		buffer = time.Second / 10
	}

	if err := speaker.Init(sampleRate, sampleRate.N(buffer)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	logger.Debug("speaker initialized",
		slog.Int("sample_rate", int(sampleRate)),
		slog.Duration("buffer", buffer),
	)

	device = &Device{sampleRate: sampleRate, logger: logger}
	return device, nil
}

// SampleRate returns the rate the speaker runs at.
func (d *Device) SampleRate() beep.SampleRate {
	return d.sampleRate
}

// NewSink opens a private sink mixed into the speaker.
func (d *Device) NewSink() *Sink {
	s := newSink()
	speaker.Play(s)
	return s
}

// Close shuts the speaker down. The device cannot be reopened afterwards.
func (d *Device) Close() {
	speaker.Close()
}
