package monitor

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/modelwatch/mwd/internal/domain"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind than this starts losing events rather than stalling
// the scheduler.
const subscriberBuffer = 64

// Broadcaster fans monitoring events out to subscribers. Publishing never
// blocks; events to a full subscriber channel are dropped and counted.
// NewBroadcaster should be used to create instances of Broadcaster.
type Broadcaster struct {
	logger hclog.Logger

	mu          sync.Mutex
	nextID      int
	subscribers map[int]chan domain.Event
	closed      bool
	dropped     uint64
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(logger hclog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:      logger.Named("events"),
		subscribers: make(map[int]chan domain.Event),
	}
}

// Subscribe registers a new subscriber and returns its event channel along
// with a cancel function. The channel is closed when the subscription is
// cancelled or the broadcaster shuts down.
func (b *Broadcaster) Subscribe() (<-chan domain.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan domain.Event)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan domain.Event, subscriberBuffer)
	b.subscribers[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber that has room for it.
func (b *Broadcaster) Publish(ev domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.dropped++
			b.logger.Warn("dropping event for slow subscriber",
				"subscriber", id, "kind", ev.Kind, "session", ev.SessionID, "dropped", b.dropped)
		}
	}
}

// Close shuts the broadcaster down and closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
