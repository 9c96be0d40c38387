package host

import (
	"sync"

	"github.com/rbright/soundpp/internal/ipc"
)

// Host-to-client event names.
const (
	EventPlayAudioFile     = "play-audio-file"
	EventShortcutTriggered = "shortcut-triggered"
	EventRecordingEnded    = "recording-ended"
	EventLibraryChanged    = "library-changed"
	EventSettingsChanged   = "settings-changed"
	EventMuteChanged       = "mute-changed"
	EventNotification      = "notification"
	EventQuit              = "quit"
)

const subscriberBuffer = 32

// Broker fans events out to subscribers. Slow subscribers drop events
// rather than block the publisher.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan ipc.Event
	nextID int
	closed bool
}

// NewBroker builds an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: map[int]chan ipc.Event{}}
}

// Subscribe registers a listener. The cancel func closes the channel.
func (b *Broker) Subscribe() (<-chan ipc.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan ipc.Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish delivers ev to every subscriber with room in its buffer.
func (b *Broker) Publish(ev ipc.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
