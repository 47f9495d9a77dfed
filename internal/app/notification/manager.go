// Package notification fans playback events out to subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/loopbox/internal/app/playback"
)

const (
	defaultSendTimeout = 500 * time.Millisecond
	defaultMaxFailures = 3
)

// Notification is a playback event stamped with a sequence number.
type Notification struct {
	SequenceNo uint64
	Event      playback.Event
}

// Stream receives notifications for one subscriber.
type Stream interface {
	Send(Notification) error
}

// StreamFunc adapts a function to a Stream.
type StreamFunc func(Notification) error

// Send calls f(n).
func (f StreamFunc) Send(n Notification) error {
	return f(n)
}

type subscriber struct {
	id       string
	stream   Stream
	types    map[playback.EventType]bool // nil accepts every type
	failures int                         // consecutive failed or timed out sends
}

func (s *subscriber) wants(t playback.EventType) bool {
	return s.types == nil || s.types[t]
}

// Manager broadcasts playback events to subscribed streams.
type Manager struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	seq         uint64

	sendTimeout time.Duration
	maxFailures int
}

// NewManager creates a manager with no subscribers.
func NewManager() *Manager {
	return &Manager{
		subscribers: make(map[string]*subscriber),
		sendTimeout: defaultSendTimeout,
		maxFailures: defaultMaxFailures,
	}
}

// Subscribe registers stream for the given event types, or for every type
// when none are given. It returns the subscription ID.
func (m *Manager) Subscribe(stream Stream, types ...playback.EventType) string {
	sub := &subscriber{
		id:     uuid.New().String(),
		stream: stream,
	}
	if len(types) > 0 {
		sub.types = make(map[playback.EventType]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[sub.id] = sub
	zlog.Debug().Msgf("notification: subscribed: id=%s types=%v", sub.id, types)
	return sub.id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, id)
}

// Broadcast delivers event to every interested subscriber and returns its
// sequence number. Sends run in parallel, each bounded by the send timeout.
// A subscriber that fails maxFailures times in a row is removed.
func (m *Manager) Broadcast(event playback.Event) uint64 {
	m.mu.Lock()
	m.seq++
	n := Notification{SequenceNo: m.seq, Event: event}
	targets := make([]*subscriber, 0, len(m.subscribers))
	for _, sub := range m.subscribers {
		if sub.wants(event.Type) {
			targets = append(targets, sub)
		}
	}
	m.mu.Unlock()

	results := make([]bool, len(targets))
	var wg sync.WaitGroup
	for i, sub := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = m.send(sub, n)
		}()
	}
	wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range targets {
		if results[i] {
			sub.failures = 0
			continue
		}
		sub.failures++
		if sub.failures >= m.maxFailures {
			delete(m.subscribers, sub.id)
			zlog.Warn().Msgf("notification: subscriber dropped after %d failures: id=%s", sub.failures, sub.id)
		}
	}

	return n.SequenceNo
}

// send delivers n to one subscriber and reports whether it succeeded in time.
func (m *Manager) send(sub *subscriber, n Notification) bool {
	ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sub.stream.Send(n)
	}()

	select {
	case err := <-done:
		if err != nil {
			zlog.Warn().Err(err).Msgf("notification: send failed: id=%s seq=%d", sub.id, n.SequenceNo)
			return false
		}
		return true
	case <-ctx.Done():
		zlog.Warn().Msgf("notification: send timed out: id=%s seq=%d", sub.id, n.SequenceNo)
		return false
	}
}

// Pump broadcasts every event from events until it is closed or ctx is done.
func (m *Manager) Pump(ctx context.Context, events <-chan playback.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			zlog.Debug().Msgf("notification: broadcasting: type=%s channel=%s", e.Type, e.Channel)
			m.Broadcast(e)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}

// Close drops every subscription.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.subscribers)
}
