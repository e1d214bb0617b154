package player

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// Precision is the sample width, in bytes, that clips are stored at.
const Precision = 2

// Clip is a decoded, trimmed and gain-adjusted sample buffer that can be
// played any number of times. It is never modified after NewClip returns, so
// cursors from Streamer may be read concurrently.
type Clip struct {
	buf *beep.Buffer
}

// NewClip drains s into a buffer of the given format, stored as signed
// 16-bit samples.
func NewClip(format beep.Format, s beep.Streamer) *Clip {
	format.Precision = Precision
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return &Clip{buf: buf}
}

// Streamer returns a new cursor positioned at the start of the clip.
func (c *Clip) Streamer() beep.StreamSeeker {
	return c.buf.Streamer(0, c.buf.Len())
}

func (c *Clip) Format() beep.Format {
	return c.buf.Format()
}

// Len returns the clip length in frames.
func (c *Clip) Len() int {
	return c.buf.Len()
}

// Duration returns the playback time of the whole clip.
func (c *Clip) Duration() time.Duration {
	return c.buf.Format().SampleRate.D(c.buf.Len())
}

// Size returns the buffered size in bytes.
func (c *Clip) Size() int {
	f := c.buf.Format()
	return c.buf.Len() * f.NumChannels * f.Precision
}
