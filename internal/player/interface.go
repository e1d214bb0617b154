// internal/player/interface.go
package player

import (
	"context"

	"github.com/gopxl/beep/v2"
)

// Output is a playback queue: streams are appended without blocking and
// Wait blocks until the queue has drained.
type Output interface {
	Append(s beep.Streamer)
	Wait(ctx context.Context) error
	Close() error
}
