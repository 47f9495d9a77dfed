package audio

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loopbox/internal/app/playback"
)

const resampleQuality = 4

// ErrHandleClosed is returned by Play after Close.
var ErrHandleClosed = errors.New("audio handle closed")

// Handle plays one mp3 source through the shared speaker.
type Handle struct {
	source string
	hooks  playback.Hooks
	output *Output
	loader *Loader
	decode func(data []byte) (beep.StreamSeekCloser, beep.Format, error)

	// Lifetime of background loads, cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	loadMu sync.Mutex // serialises loading

	mu     sync.Mutex
	loop   bool
	level  float64
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	vol    *effects.Volume
	ended  bool
	closed bool
}

// NewHandle creates a handle. Nothing is loaded until Preload or the first Play.
func NewHandle(output *Output, loader *Loader, source string, hooks playback.Hooks) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		source: source,
		hooks:  hooks,
		output: output,
		loader: loader,
		decode: decodeMP3,
		ctx:    ctx,
		cancel: cancel,
		loop:   true,
		level:  1,
	}
}

// Factory returns a playback.HandleFactory producing beep handles.
func Factory(output *Output, loader *Loader) playback.HandleFactory {
	return func(source string, hooks playback.Hooks) playback.Handle {
		return NewHandle(output, loader, source, hooks)
	}
}

// SetLoop sets whether the source loops indefinitely. It takes effect the next
// time the stream is (re)started.
func (h *Handle) SetLoop(loop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loop = loop
}

// Preload starts fetching and decoding the source in the background.
// Failures go to the error hook only; the next Play loads again.
func (h *Handle) Preload() {
	go func() {
		if err := h.ensureLoaded(h.ctx); err != nil {
			zlog.Debug().Err(err).Msgf("audio: preload failed: source=%s", h.source)
		}
	}()
}

// Play loads the source if needed, then starts or resumes playback.
// It returns once the stream is handed to the speaker.
func (h *Handle) Play(ctx context.Context) error {
	if err := h.ensureLoaded(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.output.Init(); err != nil {
		return errors.Wrap(err, "audio output unavailable")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}

	if h.ctrl != nil {
		speaker.Lock()
		h.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}

	if h.ended {
		speaker.Lock()
		err := h.stream.Seek(0)
		speaker.Unlock()
		if err != nil {
			return errors.Wrap(err, "failed to rewind")
		}
		h.ended = false
	}

	h.startLocked()
	return nil
}

// Pause pauses playback. It is a no-op before the first Play.
func (h *Handle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctrl == nil {
		return
	}
	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
}

// SetVolume sets the linear level in [0,1]; out-of-range values are clamped.
func (h *Handle) SetVolume(level float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.level = level
	if h.vol == nil {
		return
	}
	speaker.Lock()
	applyGain(h.vol, level)
	speaker.Unlock()
}

// Position returns the playback position within the source.
func (h *Handle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stream == nil {
		return 0
	}
	speaker.Lock()
	p := h.stream.Position()
	speaker.Unlock()
	return h.format.SampleRate.D(p)
}

// Duration returns the length of the source.
func (h *Handle) Duration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stream == nil {
		return 0
	}
	return h.format.SampleRate.D(h.stream.Len())
}

// Close stops playback, aborts a background load and releases the decoder.
func (h *Handle) Close() error {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.ctrl != nil {
		speaker.Lock()
		h.ctrl.Streamer = nil // drained streamers are dropped by the mixer
		speaker.Unlock()
		h.ctrl = nil
	}
	if h.stream != nil {
		return h.stream.Close()
	}
	return nil
}

func (h *Handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// ensureLoaded fetches and decodes the source once.
func (h *Handle) ensureLoaded(ctx context.Context) error {
	h.loadMu.Lock()
	defer h.loadMu.Unlock()

	h.mu.Lock()
	loaded, closed := h.stream != nil, h.closed
	h.mu.Unlock()
	if closed {
		return ErrHandleClosed
	}
	if loaded {
		return nil
	}

	h.hooks.LoadStarted()

	stream, format, err := h.load(ctx)
	if err != nil {
		if h.isClosed() {
			return ErrHandleClosed
		}
		h.hooks.Failed(err)
		return err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		if cerr := stream.Close(); cerr != nil {
			zlog.Warn().Err(cerr).Msgf("audio: failed to release decoder: source=%s", h.source)
		}
		return ErrHandleClosed
	}
	h.stream, h.format = stream, format
	h.mu.Unlock()

	zlog.Debug().Msgf("audio: decoded: source=%s sample_rate=%d channels=%d length=%v",
		h.source, format.SampleRate, format.NumChannels, format.SampleRate.D(stream.Len()))
	h.hooks.Ready()
	return nil
}

func (h *Handle) load(ctx context.Context) (beep.StreamSeekCloser, beep.Format, error) {
	data, err := h.loader.Fetch(ctx, h.source)
	if err != nil {
		return nil, beep.Format{}, err
	}

	stream, format, err := h.decode(data)
	if err != nil {
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", h.source)
	}
	return stream, format, nil
}

func decodeMP3(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	return mp3.Decode(memSource{bytes.NewReader(data)})
}

// startLocked builds the streamer chain and hands it to the speaker.
// Must be called with h.mu held.
func (h *Handle) startLocked() {
	var s beep.Streamer = h.stream
	if h.loop {
		s = beep.Loop(-1, h.stream)
	}
	// A loop only drains when its source fails.
	s = beep.Seq(s, beep.Callback(func() {
		// Runs under the speaker lock.
		go h.finish()
	}))

	if h.format.SampleRate != h.output.SampleRate {
		s = beep.Resample(resampleQuality, h.format.SampleRate, h.output.SampleRate, s)
	}

	h.vol = &effects.Volume{Streamer: s, Base: 2}
	applyGain(h.vol, h.level)
	h.ctrl = &beep.Ctrl{Streamer: h.vol}

	h.output.Play(h.ctrl)
	zlog.Debug().Msgf("audio: stream started: source=%s loop=%t", h.source, h.loop)
}

// finish records that the stream drained and reports an end of media, or the
// decoder error that stopped it.
func (h *Handle) finish() {
	h.mu.Lock()
	if h.closed || h.ctrl == nil {
		h.mu.Unlock()
		return
	}
	speaker.Lock()
	err := h.stream.Err()
	speaker.Unlock()
	h.ctrl = nil
	h.vol = nil
	h.ended = true
	h.mu.Unlock()

	if err != nil {
		h.hooks.Failed(errors.Wrapf(err, "failed to stream %s", h.source))
		return
	}
	h.hooks.Ended()
}

// memSource keeps the decoder seekable, which looping depends on.
type memSource struct {
	*bytes.Reader
}

func (memSource) Close() error { return nil }
