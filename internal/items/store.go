package items

import (
	"fmt"
	"sync"
)

// Item is the single record type held by the store.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Notifier is told about every item appended to a Store.
type Notifier interface {
	Publish(Item)
}

// Store is a thread-safe, ordered, in-memory item collection. Insertion order
// is the iteration order. All public methods are safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	items  []Item
	notify Notifier
}

// Seed returns the records present at process start.
func Seed() []Item {
	return []Item{
		{ID: 1, Name: "Item 1", Description: "This is item 1"},
		{ID: 2, Name: "Item 2", Description: "This is item 2"},
		{ID: 3, Name: "Item 3", Description: "This is item 3"},
	}
}

// NewStore creates a store holding the seed data. n may be nil.
func NewStore(n Notifier) *Store {
	return NewStoreWith(Seed(), n)
}

// NewStoreWith creates a store holding a copy of initial.
func NewStoreWith(initial []Item, n Notifier) *Store {
	s := &Store{
		items:  make([]Item, len(initial)),
		notify: n,
	}
	copy(s.items, initial)
	return s
}

// List returns a copy of all items in insertion order.
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item with the given id.
func (s *Store) Get(id int64) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Append adds a new item whose id is one greater than the current maximum.
// A nil description is replaced by "This is item N", N being the item count
// before insertion plus one. On an empty store the first id is 1.
func (s *Store) Append(name string, description *string) Item {
	s.mu.Lock()
	var maxID int64
	for _, it := range s.items {
		if it.ID > maxID {
			maxID = it.ID
		}
	}
	it := Item{ID: maxID + 1, Name: name}
	if description != nil {
		it.Description = *description
	} else {
		it.Description = DefaultDescription(len(s.items))
	}
	s.items = append(s.items, it)
	s.mu.Unlock()

	if s.notify != nil {
		s.notify.Publish(it)
	}
	return it
}

// DefaultDescription is the description given to an item created when count
// items already exist.
func DefaultDescription(count int) string {
	return fmt.Sprintf("This is item %d", count+1)
}
