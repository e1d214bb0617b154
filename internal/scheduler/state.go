// internal/scheduler/state.go
package scheduler

// State is a scheduler's position in its play cycle.
//
// Blocking mode, repeating:
//
//	┌──────┐  draw wait  ┌─────────┐  wait elapsed  ┌─────────┐
//	│ Idle │ ───────────▶│ Waiting │ ──────────────▶│ Playing │
//	└──────┘             └─────────┘◀────────────── └─────────┘
//	                                  queue drained
//
// Blocking mode, once:
//
//	Idle → Playing → Terminated
//
// Cooperative mode:
//
//	Idle → Waiting → (fire: append, re-arm) → Waiting … → Terminated (Stop)
type State int

const (
	Idle State = iota
	Waiting
	Playing
	Terminated
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Waiting:
		return "Waiting"
	case Playing:
		return "Playing"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// IsActive returns true while the scheduler still has plays ahead of it.
func (s State) IsActive() bool {
	return s == Waiting || s == Playing
}
