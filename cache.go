package ecs

import "fmt"

// SimpleCache is a name-indexed, capacity-bounded append list: items are
// registered under a string key once and looked up by either key or
// dense index thereafter. ScheduleSet uses one to resolve schedule names
// to their position in its run order, the same role the teacher's
// SimpleCache plays for named component accessors.
type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}

// NewSimpleCache creates a cache that holds at most cap items.
func NewSimpleCache[T any](capacity int) *SimpleCache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: capacity,
	}
}

// GetIndex returns the dense index registered under key.
func (c *SimpleCache[T]) GetIndex(key string) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

// GetItem returns a pointer to the item at index.
func (c *SimpleCache[T]) GetItem(index int) *T {
	return &c.items[index]
}

// Register adds item under key, returning its dense index. Fails once
// the cache is at capacity or the key is already registered.
func (c *SimpleCache[T]) Register(key string, item T) (int, error) {
	if _, ok := c.itemIndices[key]; ok {
		return -1, fmt.Errorf("key %q already registered", key)
	}
	if len(c.itemIndices) >= c.maxCapacity {
		return -1, fmt.Errorf("cache at maximum capacity (%d)", c.maxCapacity)
	}
	idx := len(c.items)
	c.itemIndices[key] = idx
	c.items = append(c.items, item)
	return idx, nil
}

// Len returns the number of registered items.
func (c *SimpleCache[T]) Len() int { return len(c.items) }

// Clear empties the cache.
func (c *SimpleCache[T]) Clear() {
	c.items = nil
	c.itemIndices = make(map[string]int)
}
