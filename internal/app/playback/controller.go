package playback

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loopbox/internal/domain/channel"
)

// Errors
var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrClosed         = errors.New("controller closed")
	ErrNoHandle       = errors.New("no handle factory")
)

const defaultEventBuffer = 16

// Refresher receives a snapshot of every channel's playing flag after each
// state transition. It is called with the controller lock held and must not
// call back into the controller.
type Refresher interface {
	Refresh(states map[string]bool)
}

// Config holds controller configuration.
type Config struct {
	Channels    []channel.Channel // Channels in display order
	NewHandle   HandleFactory     // Builds a handle on first use
	Refresher   Refresher         // Visual state sync (optional)
	EventBuffer int               // Event channel capacity
}

// entry is the runtime state of one channel.
type entry struct {
	ch      channel.Channel
	handle  Handle
	playing bool
	pending bool // play request in flight
	volume  float64
}

func (e *entry) state() State {
	switch {
	case e.handle == nil:
		return StateIdle
	case e.pending:
		return StatePending
	case e.playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

// Controller manages playback for a fixed set of independent channels.
type Controller struct {
	mu sync.Mutex

	entries map[string]*entry
	order   []string

	newHandle HandleFactory
	refresher Refresher

	// Events
	eventCh chan Event
	closed  bool

	// Context for in-flight play requests
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new playback controller with one record per channel.
// Handles are not created until Preload or Play.
func NewController(config Config) (*Controller, error) {
	if config.NewHandle == nil {
		return nil, ErrNoHandle
	}

	entries := make(map[string]*entry, len(config.Channels))
	order := make([]string, 0, len(config.Channels))
	for _, ch := range config.Channels {
		if !ch.Validate() {
			return nil, errors.Newf("invalid channel: id=%q source=%q", ch.ID, ch.Source)
		}
		if _, exists := entries[ch.ID]; exists {
			return nil, errors.Newf("duplicate channel: %s", ch.ID)
		}
		entries[ch.ID] = &entry{
			ch:     ch,
			volume: channel.ClampVolume(ch.Volume),
		}
		order = append(order, ch.ID)
	}

	bufSize := config.EventBuffer
	if bufSize <= 0 {
		bufSize = defaultEventBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		entries:   entries,
		order:     order,
		newHandle: config.NewHandle,
		refresher: config.Refresher,
		eventCh:   make(chan Event, bufSize),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Events returns the event channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Channels returns the channel IDs in configuration order.
func (c *Controller) Channels() []string {
	result := make([]string, len(c.order))
	copy(result, c.order)
	return result
}

// Preload creates the channel's handle if it does not exist yet.
func (c *Controller) Preload(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	e, err := c.entryLocked(id)
	if err != nil {
		return err
	}
	c.preloadLocked(e)
	return nil
}

// PreloadAll creates the handles of every channel.
func (c *Controller) PreloadAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	for _, id := range c.order {
		c.preloadLocked(c.entries[id])
	}
}

// PreloadAfter preloads every channel once delay has elapsed, unless ctx is
// cancelled or the controller is closed first.
func (c *Controller) PreloadAfter(ctx context.Context, delay time.Duration) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-c.ctx.Done():
			return
		case <-timer.C:
			zlog.Debug().Msgf("playback: delayed preload: delay=%v", delay)
			c.PreloadAll()
		}
	}()
}

// Play requests playback of a channel. The request resolves asynchronously;
// the channel only reads as playing once the handle reports success.
// Playing or pending channels are left untouched.
func (c *Controller) Play(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	e, err := c.entryLocked(id)
	if err != nil {
		return err
	}
	c.preloadLocked(e)

	if e.playing || e.pending {
		zlog.Debug().Msgf("playback: play ignored: channel=%s state=%s", id, e.state())
		return nil
	}

	e.pending = true
	go c.awaitPlay(e, e.handle)

	return nil
}

// awaitPlay issues the play request and applies its outcome.
func (c *Controller) awaitPlay(e *entry, h Handle) {
	err := h.Play(c.ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	e.pending = false
	if c.closed {
		return
	}

	if err != nil {
		zlog.Error().Err(err).Msgf("playback: play failed: channel=%s", e.ch.ID)
		c.sendEventLocked(Event{
			Type:    EventPlayFailed,
			Channel: e.ch.ID,
			State:   e.state(),
			Err:     errors.Wrapf(err, "play %s", e.ch.ID),
		})
		return
	}

	e.playing = true
	zlog.Info().Msgf("playback: started: channel=%s", e.ch.ID)

	c.refreshLocked()
	c.sendEventLocked(Event{
		Type:    EventPlayStarted,
		Channel: e.ch.ID,
		State:   e.state(),
	})
}

// Pause pauses a playing channel. It does nothing otherwise.
func (c *Controller) Pause(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	e, err := c.entryLocked(id)
	if err != nil {
		return err
	}

	if !e.playing {
		zlog.Debug().Msgf("playback: pause ignored: channel=%s state=%s", id, e.state())
		return nil
	}

	e.handle.Pause()
	e.playing = false
	zlog.Info().Msgf("playback: paused: channel=%s", id)

	c.refreshLocked()
	c.sendEventLocked(Event{
		Type:    EventPaused,
		Channel: id,
		State:   e.state(),
	})

	return nil
}

// Toggle pauses a playing channel and plays any other.
func (c *Controller) Toggle(id string) error {
	if c.IsPlaying(id) {
		return c.Pause(id)
	}
	return c.Play(id)
}

// SetVolume clamps level to [0,1] and applies it to the channel's handle.
// Returns false when the channel has no handle yet; the level is then dropped.
func (c *Controller) SetVolume(id string, level float64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.entryLocked(id)
	if err != nil {
		return false, err
	}
	if e.handle == nil {
		zlog.Debug().Msgf("playback: volume dropped, channel not initialized: channel=%s", id)
		return false, nil
	}

	e.volume = channel.ClampVolume(level)
	e.handle.SetVolume(e.volume)
	zlog.Info().Msgf("playback: volume set: channel=%s volume=%.0f%%", id, e.volume*100)

	return true, nil
}

// Volume returns the last applied volume of a channel.
func (c *Controller) Volume(id string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e.volume
	}
	return 0
}

// IsPlaying reports whether the channel is playing. Unknown channels are not.
func (c *Controller) IsPlaying(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	return ok && e.playing
}

// IsPending reports whether a play request for the channel is in flight.
func (c *Controller) IsPending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	return ok && e.pending
}

// GetState returns the state of a channel.
func (c *Controller) GetState(id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.entryLocked(id)
	if err != nil {
		return StateIdle, err
	}
	return e.state(), nil
}

// States returns a snapshot of every channel's playing flag.
func (c *Controller) States() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statesLocked()
}

// CurrentTime returns the playback position, or zero before the handle exists.
func (c *Controller) CurrentTime(id string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok && e.handle != nil {
		return e.handle.Position()
	}
	return 0
}

// Duration returns the media length, or zero before the handle exists.
func (c *Controller) Duration(id string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok && e.handle != nil {
		return e.handle.Duration()
	}
	return 0
}

// Refresh pushes the current state to the refresher without a transition.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
}

// Close cancels in-flight play requests, releases handles and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()

	for _, id := range c.order {
		e := c.entries[id]
		if e.handle == nil {
			continue
		}
		if e.playing {
			e.handle.Pause()
			e.playing = false
		}
		if closer, ok := e.handle.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				zlog.Warn().Err(err).Msgf("playback: failed to close handle: channel=%s", id)
			}
		}
	}

	close(c.eventCh)
}

// onEnded handles the end-of-media notification of a handle.
func (c *Controller) onEnded(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	e := c.entries[id]
	if !e.playing {
		return
	}

	e.playing = false
	zlog.Info().Msgf("playback: ended: channel=%s", id)

	c.refreshLocked()
	c.sendEventLocked(Event{
		Type:    EventEnded,
		Channel: id,
		State:   e.state(),
	})
}

// onError handles an error reported by a handle. A playing channel stops
// reading as playing; otherwise the error is only logged.
func (c *Controller) onError(id string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	e := c.entries[id]
	if !e.playing {
		zlog.Warn().Err(err).Msgf("playback: handle error: channel=%s state=%s", id, e.state())
		return
	}

	e.playing = false
	zlog.Error().Err(err).Msgf("playback: error while playing: channel=%s", id)

	c.refreshLocked()
	c.sendEventLocked(Event{
		Type:    EventError,
		Channel: id,
		State:   e.state(),
		Err:     errors.Wrapf(err, "playback %s", id),
	})
}

// preloadLocked creates the handle once.
// Must be called with lock held.
func (c *Controller) preloadLocked(e *entry) {
	if e.handle != nil {
		return
	}

	id := e.ch.ID
	h := c.newHandle(e.ch.Source, Hooks{
		OnLoadStart: func() {
			zlog.Debug().Msgf("playback: load started: channel=%s", id)
		},
		OnReady: func() {
			zlog.Debug().Msgf("playback: ready to play: channel=%s", id)
		},
		OnError: func(err error) {
			c.onError(id, err)
		},
		OnEnded: func() {
			c.onEnded(id)
		},
	})
	h.SetLoop(e.ch.Loop)
	h.SetVolume(e.volume)
	e.handle = h
	if p, ok := h.(Preloader); ok {
		p.Preload()
	}

	zlog.Debug().Msgf("playback: handle created: channel=%s source=%s loop=%t", id, e.ch.Source, e.ch.Loop)
}

func (c *Controller) entryLocked(id string) (*entry, error) {
	e, ok := c.entries[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownChannel, "channel %q", id)
	}
	return e, nil
}

func (c *Controller) statesLocked() map[string]bool {
	states := make(map[string]bool, len(c.entries))
	for id, e := range c.entries {
		states[id] = e.playing
	}
	return states
}

// refreshLocked hands a state snapshot to the refresher.
// Must be called with lock held.
func (c *Controller) refreshLocked() {
	if c.refresher == nil {
		return
	}
	c.refresher.Refresh(c.statesLocked())
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		zlog.Warn().Msgf("playback: event dropped, channel full: type=%s channel=%s", e.Type, e.Channel)
	}
}
