package feed

import (
	"log"
	"sync"

	"github.com/alfagnish/itemsvc/internal/items"
	"github.com/google/uuid"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Hub fans newly created items out to subscribers. It satisfies
// items.Notifier. All public methods are safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan items.Item
	buffer int
	closed bool
}

// NewHub creates an empty hub. A buffer <= 0 uses DefaultBuffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]chan items.Item),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber and returns its id, the channel on
// which items arrive, and a cancel function that unregisters it. After Close
// the returned channel is already closed.
func (h *Hub) Subscribe() (string, <-chan items.Item, func()) {
	id := uuid.New().String()
	ch := make(chan items.Item, h.buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return id, ch, func() {}
	}
	h.subs[id] = ch
	return id, ch, func() { h.unsubscribe(id) }
}

// Publish delivers it to every subscriber without blocking. Subscribers with
// a full buffer miss the event.
func (h *Hub) Publish(it items.Item) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- it:
		default:
			log.Printf("feed: subscriber %s is full, dropped item %d", id, it.ID)
		}
	}
}

// Count returns the number of active subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Further publishes are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return
	}
	close(ch)
	delete(h.subs, id)
}
