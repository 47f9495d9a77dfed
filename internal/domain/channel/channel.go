// Package channel provides the Channel domain entity.
package channel

// Well-known channel IDs.
const (
	IDSample = "sample" // Looping melodic sample
	IDBeat   = "beat"   // Looping drum beat
	IDTrack  = "track"  // Single-track console
)

// Volume bounds.
const (
	MinVolume = 0.0
	MaxVolume = 1.0
)

// Channel represents one independently controllable looping audio track.
// Contains only the static description; runtime state lives in the playback controller.
type Channel struct {
	ID     string  // Channel identifier
	Source string  // File path or URL of the audio source
	Volume float64 // Initial volume in [0,1]
	Loop   bool    // Loop indefinitely
}

// ClampVolume clamps a volume level to [MinVolume, MaxVolume].
func ClampVolume(level float64) float64 {
	if level != level { // NaN
		return MinVolume
	}
	if level < MinVolume {
		return MinVolume
	}
	if level > MaxVolume {
		return MaxVolume
	}
	return level
}

// Validate reports whether the channel has the fields required to build a handle.
func (c *Channel) Validate() bool {
	return c.ID != "" && c.Source != ""
}
