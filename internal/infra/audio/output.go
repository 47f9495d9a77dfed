// Package audio implements playback handles on top of the beep speaker.
package audio

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	zlog "github.com/rs/zerolog/log"
)

// Output is the process-wide speaker. It is initialised on first use.
type Output struct {
	SampleRate beep.SampleRate
	Buffer     time.Duration

	once sync.Once
	err  error
	init func(sr beep.SampleRate, bufferSize int) error
	play func(s ...beep.Streamer)
}

// NewOutput creates an output for the given sample rate and buffer duration.
func NewOutput(sampleRate int, buffer time.Duration) *Output {
	return &Output{
		SampleRate: beep.SampleRate(sampleRate),
		Buffer:     buffer,
		init:       speaker.Init,
		play:       speaker.Play,
	}
}

// Init initialises the speaker once. A failed init is not retried.
func (o *Output) Init() error {
	o.once.Do(func() {
		zlog.Info().Msgf("audio: initializing speaker: sample_rate=%d buffer=%v", o.SampleRate, o.Buffer)
		o.err = o.init(o.SampleRate, o.SampleRate.N(o.Buffer))
		if o.err != nil {
			zlog.Error().Err(o.err).Msg("audio: speaker init failed")
		}
	})
	return o.err
}

// Play hands s to the speaker mixer.
func (o *Output) Play(s beep.Streamer) {
	o.play(s)
}
