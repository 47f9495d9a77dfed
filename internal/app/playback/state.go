// Package playback provides per-channel playback control over lazily created audio handles.
package playback

// State represents the playback state of a single channel.
type State int

const (
	StateIdle    State = iota // No handle created yet
	StatePending              // Play requested, waiting for the handle to resolve it
	StatePlaying              // Handle is playing
	StatePaused               // Handle exists and is not playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
