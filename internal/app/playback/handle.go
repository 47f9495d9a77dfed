package playback

import (
	"context"
	"time"
)

// Handle is a playable audio handle bound to one source.
//
// Play may block until playback has actually started or failed; the controller
// always calls it off its own lock. Pause, SetVolume, Position and Duration must
// not call back into the controller.
type Handle interface {
	SetLoop(loop bool)
	Play(ctx context.Context) error
	Pause()
	SetVolume(level float64)
	Position() time.Duration
	Duration() time.Duration
}

// Preloader is implemented by handles that can start fetching their source
// before the first Play. Preload must not block and must not call hooks
// synchronously.
type Preloader interface {
	Preload()
}

// Hooks are the notifications a handle emits. Any hook may be nil.
// OnError and OnEnded must be called without holding locks the controller can wait on.
type Hooks struct {
	OnLoadStart func()
	OnReady     func()
	OnError     func(err error)
	OnEnded     func()
}

// HandleFactory constructs a handle for a source.
type HandleFactory func(source string, hooks Hooks) Handle

// LoadStarted invokes OnLoadStart if set.
func (h Hooks) LoadStarted() {
	if h.OnLoadStart != nil {
		h.OnLoadStart()
	}
}

// Ready invokes OnReady if set.
func (h Hooks) Ready() {
	if h.OnReady != nil {
		h.OnReady()
	}
}

// Failed invokes OnError if set.
func (h Hooks) Failed(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

// Ended invokes OnEnded if set.
func (h Hooks) Ended() {
	if h.OnEnded != nil {
		h.OnEnded()
	}
}
