package workspace

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrStaleFetch is returned when a collection is reset while its fetch is
	// still in flight. The fetched rows are dropped.
	ErrStaleFetch = errors.New("collection was reset during fetch")
	// ErrFetchContended is returned when every fetch attempt overlapped a
	// confirmed write. The collection stays unloaded.
	ErrFetchContended = errors.New("collection kept changing during fetch")
)

// Collection is an owner-scoped list fetched wholesale on first use and kept
// in sync by patches applied after confirmed remote writes.
type Collection[T any] struct {
	mu      sync.Mutex
	items   []T
	loaded  bool
	version uint64
	epoch   uint64
	// writes counts patches that arrived while no fetched copy existed
	writes uint64

	fetch func(ctx context.Context) ([]T, error)
	id    func(T) uuid.UUID
	order func(a, b T) int
}

func NewCollection[T any](fetch func(ctx context.Context) ([]T, error), id func(T) uuid.UUID, order func(a, b T) int) *Collection[T] {
	return &Collection[T]{fetch: fetch, id: id, order: order}
}

const maxFetchAttempts = 3

// Items returns a copy of the collection, fetching it first if needed. A
// fetch that overlapped a confirmed write is repeated so the write is not
// lost.
func (c *Collection[T]) Items(ctx context.Context) ([]T, error) {
	for attempt := 0; ; attempt++ {
		c.mu.Lock()
		if c.loaded {
			out := slices.Clone(c.items)
			c.mu.Unlock()
			return out, nil
		}
		epoch, writes := c.epoch, c.writes
		c.mu.Unlock()

		rows, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		switch {
		case c.epoch != epoch:
			c.mu.Unlock()
			return nil, ErrStaleFetch
		case c.writes != writes && c.loaded:
			// another caller installed a newer copy
		case c.writes != writes && attempt+1 < maxFetchAttempts:
			c.mu.Unlock()
			continue
		case c.writes != writes:
			c.mu.Unlock()
			return nil, ErrFetchContended
		}
		if !c.loaded {
			c.items = slices.Clone(rows)
			slices.SortStableFunc(c.items, c.order)
			c.loaded = true
			c.version++
		}
		out := slices.Clone(c.items)
		c.mu.Unlock()
		return out, nil
	}
}

// Find returns the item with id, fetching the collection if needed
func (c *Collection[T]) Find(ctx context.Context, id uuid.UUID) (T, bool, error) {
	items, err := c.Items(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	for _, item := range items {
		if c.id(item) == id {
			return item, true, nil
		}
	}
	var zero T
	return zero, false, nil
}

// Version changes whenever the local contents change
func (c *Collection[T]) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *Collection[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Add inserts a confirmed new item. Collections that were never fetched are
// left alone; the next fetch will include it.
func (c *Collection[T]) Add(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.writes++
		return
	}
	c.items = append(c.items, item)
	slices.SortStableFunc(c.items, c.order)
	c.version++
}

// Replace swaps in a confirmed updated item
func (c *Collection[T]) Replace(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.writes++
		return
	}
	id := c.id(item)
	for i := range c.items {
		if c.id(c.items[i]) == id {
			c.items[i] = item
			slices.SortStableFunc(c.items, c.order)
			c.version++
			return
		}
	}
}

// Remove drops a confirmed deleted item
func (c *Collection[T]) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.writes++
		return
	}
	n := len(c.items)
	c.items = slices.DeleteFunc(c.items, func(item T) bool { return c.id(item) == id })
	if len(c.items) != n {
		c.version++
	}
}

// Update rewrites items in place. fn reports whether it changed the item.
func (c *Collection[T]) Update(fn func(*T) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := false
	for i := range c.items {
		if fn(&c.items[i]) {
			changed = true
		}
	}
	if changed {
		slices.SortStableFunc(c.items, c.order)
		c.version++
	}
}

// Reset forgets the contents and invalidates any fetch in flight
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.loaded = false
	c.epoch++
	c.version++
}
