package audio

import (
	"math"

	"github.com/faiface/beep/effects"

	"github.com/osa030/loopbox/internal/domain/channel"
)

// gain maps a linear level in [0,1] to a base-2 effects.Volume setting.
func gain(level float64) (volume float64, silent bool) {
	level = channel.ClampVolume(level)
	if level == 0 {
		return 0, true
	}
	return math.Log2(level), false
}

func applyGain(v *effects.Volume, level float64) {
	v.Volume, v.Silent = gain(level)
}
