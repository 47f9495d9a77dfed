package playback

// EventType represents a playback event type.
type EventType int

const (
	EventPlayStarted EventType = iota // Play request resolved successfully
	EventPlayFailed                   // Play request was rejected by the handle
	EventPaused                       // Channel was paused
	EventEnded                        // Handle reached end of media
	EventError                        // Handle reported an error while playing
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventPlayStarted:
		return "play_started"
	case EventPlayFailed:
		return "play_failed"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type    EventType
	Channel string // Channel ID
	State   State  // Channel state after the event
	Err     error  // Failure reason (EventPlayFailed and EventError)
}
