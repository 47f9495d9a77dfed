package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/loopbox/internal/app/playback"
)

type recordingStream struct {
	mu       sync.Mutex
	received []Notification
}

func (s *recordingStream) Send(n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, n)
	return nil
}

func (s *recordingStream) all() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Notification, len(s.received))
	copy(result, s.received)
	return result
}

func TestManager_SubscribeAndBroadcast(t *testing.T) {
	m := NewManager()
	a, b := &recordingStream{}, &recordingStream{}

	idA := m.Subscribe(a)
	idB := m.Subscribe(b)
	assert.NotEqual(t, idA, idB)
	assert.Equal(t, 2, m.SubscriberCount())

	seq := m.Broadcast(playback.Event{Type: playback.EventPlayStarted, Channel: "sample"})
	assert.Equal(t, uint64(1), seq)

	require.Len(t, a.all(), 1)
	require.Len(t, b.all(), 1)
	assert.Equal(t, "sample", a.all()[0].Event.Channel)
	assert.Equal(t, uint64(1), b.all()[0].SequenceNo)

	m.Unsubscribe(idA)
	seq = m.Broadcast(playback.Event{Type: playback.EventPaused, Channel: "sample"})
	assert.Equal(t, uint64(2), seq)
	assert.Len(t, a.all(), 1)
	assert.Len(t, b.all(), 2)
}

func TestManager_SlowAndFailingSubscribers(t *testing.T) {
	m := NewManager()
	m.sendTimeout = 20 * time.Millisecond

	block := make(chan struct{})
	defer close(block)
	m.Subscribe(StreamFunc(func(Notification) error {
		<-block
		return nil
	}))
	m.Subscribe(StreamFunc(func(Notification) error {
		return errors.New("gone")
	}))
	ok := &recordingStream{}
	m.Subscribe(ok)

	start := time.Now()
	m.Broadcast(playback.Event{Type: playback.EventEnded, Channel: "beat"})
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Len(t, ok.all(), 1)
}

func TestManager_DropsFailingSubscriber(t *testing.T) {
	m := NewManager()
	m.maxFailures = 2

	calls := 0
	m.Subscribe(StreamFunc(func(Notification) error {
		calls++
		return errors.New("broken pipe")
	}))
	ok := &recordingStream{}
	m.Subscribe(ok)

	m.Broadcast(playback.Event{Type: playback.EventPaused, Channel: "sample"})
	assert.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(playback.Event{Type: playback.EventPaused, Channel: "sample"})
	assert.Equal(t, 1, m.SubscriberCount())

	m.Broadcast(playback.Event{Type: playback.EventPaused, Channel: "sample"})
	assert.Equal(t, 2, calls)
	assert.Len(t, ok.all(), 3)
}

func TestManager_TypeFilter(t *testing.T) {
	m := NewManager()
	failures := &recordingStream{}
	all := &recordingStream{}
	m.Subscribe(failures, playback.EventPlayFailed)
	m.Subscribe(all)

	m.Broadcast(playback.Event{Type: playback.EventPlayStarted, Channel: "beat"})
	m.Broadcast(playback.Event{Type: playback.EventPlayFailed, Channel: "beat"})

	require.Len(t, failures.all(), 1)
	assert.Equal(t, uint64(2), failures.all()[0].SequenceNo)
	assert.Len(t, all.all(), 2)
}

func TestManager_Pump(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	m.Subscribe(s)

	events := make(chan playback.Event, 2)
	events <- playback.Event{Type: playback.EventPlayFailed, Channel: "sample", Err: errors.New("denied")}
	events <- playback.Event{Type: playback.EventPlayStarted, Channel: "beat"}
	close(events)

	m.Pump(context.Background(), events)

	got := s.all()
	require.Len(t, got, 2)
	assert.Equal(t, playback.EventPlayFailed, got[0].Event.Type)
	assert.Equal(t, playback.EventPlayStarted, got[1].Event.Type)
}

func TestManager_PumpStopsOnContext(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		m.Pump(ctx, make(chan playback.Event))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
}

func TestManager_Close(t *testing.T) {
	m := NewManager()
	m.Subscribe(&recordingStream{})
	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}
