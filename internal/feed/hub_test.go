package feed

import (
	"testing"
	"time"

	"github.com/alfagnish/itemsvc/internal/items"
)

func TestPublishReachesSubscribers(t *testing.T) {
	h := NewHub(0)
	_, a, cancelA := h.Subscribe()
	defer cancelA()
	_, b, cancelB := h.Subscribe()
	defer cancelB()

	if h.Count() != 2 {
		t.Fatalf("count: got %d", h.Count())
	}

	it := items.Item{ID: 4, Name: "Foo", Description: "This is item 4"}
	h.Publish(it)

	for _, ch := range []<-chan items.Item{a, b} {
		select {
		case got := <-ch:
			if got != it {
				t.Fatalf("got %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for item")
		}
	}
}

func TestCancelUnsubscribes(t *testing.T) {
	h := NewHub(1)
	_, ch, cancel := h.Subscribe()
	cancel()
	cancel()

	if h.Count() != 0 {
		t.Fatalf("count: got %d", h.Count())
	}
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed")
	}
	h.Publish(items.Item{ID: 1})
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	h := NewHub(1)
	_, ch, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		h.Publish(items.Item{ID: 1})
		h.Publish(items.Item{ID: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked")
	}
	if got := <-ch; got.ID != 1 {
		t.Fatalf("got id %d", got.ID)
	}
}

func TestClose(t *testing.T) {
	h := NewHub(0)
	_, ch, cancel := h.Subscribe()
	h.Close()
	h.Close()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed")
	}

	_, late, _ := h.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscribe after close should return a closed channel")
	}
	if h.Count() != 0 {
		t.Fatalf("count: got %d", h.Count())
	}
}

func TestHubAsNotifier(t *testing.T) {
	h := NewHub(0)
	_, ch, cancel := h.Subscribe()
	defer cancel()

	store := items.NewStore(h)
	created := store.Append("Foo", nil)

	select {
	case got := <-ch:
		if got != created {
			t.Fatalf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out")
	}
}
