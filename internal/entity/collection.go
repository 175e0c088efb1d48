package entity

import (
	"shoezclean/backend/internal/domain"
)

// Collection is one ordered, keyed list inside a Store. Newest records come
// first. All methods take the owning store's lock.
type Collection[T any] struct {
	store *Store
	table domain.Table
	key   func(T) string
	clone func(T) T
	items []T
}

func newCollection[T any](s *Store, table domain.Table, key func(T) string, clone func(T) T) *Collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Collection[T]{store: s, table: table, key: key, clone: clone}
}

func (c *Collection[T]) Table() domain.Table {
	return c.table
}

func (c *Collection[T]) Key(v T) string {
	return c.key(v)
}

func (c *Collection[T]) Len() int {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return len(c.items)
}

func (c *Collection[T]) All() []T {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.copyLocked()
}

func (c *Collection[T]) copyLocked() []T {
	out := make([]T, len(c.items))
	for i, item := range c.items {
		out[i] = c.clone(item)
	}
	return out
}

func (c *Collection[T]) Get(id string) (T, bool) {
	return c.Find(func(v T) bool { return c.key(v) == id })
}

func (c *Collection[T]) Find(match func(T) bool) (T, bool) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	for _, item := range c.items {
		if match(item) {
			return c.clone(item), true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Filter(match func(T) bool) []T {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	out := make([]T, 0)
	for _, item := range c.items {
		if match(item) {
			out = append(out, c.clone(item))
		}
	}
	return out
}

// Insert prepends item.
func (c *Collection[T]) Insert(item T) {
	c.store.mu.Lock()
	c.items = append([]T{c.clone(item)}, c.items...)
	c.store.mu.Unlock()
	c.store.notify(c.table)
}

// Swap replaces the entry keyed tempID with canonical in one step, keeping its
// position. Any other entry already carrying the canonical key is dropped so
// the record appears exactly once. If tempID is gone (a reload ran in
// between) canonical is inserted unless already present. Swap reports whether
// tempID was found.
func (c *Collection[T]) Swap(tempID string, canonical T) bool {
	canonicalID := c.key(canonical)

	c.store.mu.Lock()
	pos := -1
	kept := c.items[:0:0]
	for _, item := range c.items {
		switch c.key(item) {
		case tempID:
			pos = len(kept)
			kept = append(kept, c.clone(canonical))
		case canonicalID:
			if tempID == canonicalID {
				pos = len(kept)
				kept = append(kept, c.clone(canonical))
			}
		default:
			kept = append(kept, item)
		}
	}
	if pos < 0 {
		kept = c.items
		present := false
		for _, item := range kept {
			if c.key(item) == canonicalID {
				present = true
				break
			}
		}
		if !present {
			kept = append([]T{c.clone(canonical)}, kept...)
		}
	}
	c.items = kept
	c.store.mu.Unlock()

	c.store.notify(c.table)
	return pos >= 0
}

func (c *Collection[T]) Remove(id string) bool {
	return c.RemoveWhere(func(v T) bool { return c.key(v) == id }) > 0
}

// RemoveWhere drops every matching entry and returns how many went.
func (c *Collection[T]) RemoveWhere(match func(T) bool) int {
	c.store.mu.Lock()
	kept := c.items[:0:0]
	removed := 0
	for _, item := range c.items {
		if match(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	c.items = kept
	c.store.mu.Unlock()

	if removed > 0 {
		c.store.notify(c.table)
	}
	return removed
}

// Update applies fn to the entry keyed id and returns the result.
func (c *Collection[T]) Update(id string, fn func(*T)) (T, bool) {
	c.store.mu.Lock()
	for i := range c.items {
		if c.key(c.items[i]) != id {
			continue
		}
		updated := c.clone(c.items[i])
		fn(&updated)
		c.items[i] = updated
		c.store.mu.Unlock()
		c.store.notify(c.table)
		return c.clone(updated), true
	}
	c.store.mu.Unlock()
	var zero T
	return zero, false
}

// Replace swaps the whole collection, as after a reload.
func (c *Collection[T]) Replace(items []T) {
	fresh := make([]T, len(items))
	for i, item := range items {
		fresh[i] = c.clone(item)
	}
	c.store.mu.Lock()
	c.items = fresh
	c.store.mu.Unlock()
	c.store.notify(c.table)
}

func (c *Collection[T]) reset() {
	c.items = nil
}
