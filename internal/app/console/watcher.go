package console

import (
	"github.com/osa030/loopbox/internal/app/notification"
	"github.com/osa030/loopbox/internal/app/playback"
)

// watcher prints asynchronous playback outcomes.
type watcher struct {
	d *Dispatcher
}

// Watcher returns a notification stream that alerts on play failures and
// playback errors, and redraws the panel when a channel changes on its own.
func (d *Dispatcher) Watcher() notification.Stream {
	return watcher{d: d}
}

func (w watcher) Send(n notification.Notification) error {
	e := n.Event
	switch e.Type {
	case playback.EventPlayFailed:
		w.d.printf("[!] %s (%s: %v)\n", w.d.messages.PlayFailed, e.Channel, e.Err)
	case playback.EventError:
		w.d.printf("[!] %s (%s: %v)\n", w.d.messages.PlayFailed, e.Channel, e.Err)
		w.d.drawPanel()
	case playback.EventPlayStarted, playback.EventEnded:
		w.d.drawPanel()
	}
	return nil
}
