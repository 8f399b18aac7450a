package ecs

// SparseMap is an O(1) int-keyed map: a dense array indexed by key, plus
// a packed dense list for O(1) iteration, per the design notes' explicit
// description (§9: "dense array indexed by id... Memory ≈ O(max_entity_id).
// This is intentional"). It is distinct from the hash-based intmap used
// elsewhere in this module (see DESIGN.md) precisely because the design
// notes call for array indexing, not hashing.
type SparseMap[V any] struct {
	sparse    []int32 // sparse[key] = index into dense+1, or 0 if absent
	denseKeys []uint32
	denseVals []V
}

// NewSparseMap creates an empty SparseMap.
func NewSparseMap[V any]() *SparseMap[V] {
	return &SparseMap[V]{}
}

func (m *SparseMap[V]) ensure(key uint32) {
	if int(key) >= len(m.sparse) {
		grown := make([]int32, key+1)
		copy(grown, m.sparse)
		m.sparse = grown
	}
}

// Put inserts or updates the value for key.
func (m *SparseMap[V]) Put(key uint32, val V) {
	m.ensure(key)
	if idx := m.sparse[key]; idx != 0 {
		m.denseVals[idx-1] = val
		return
	}
	m.denseKeys = append(m.denseKeys, key)
	m.denseVals = append(m.denseVals, val)
	m.sparse[key] = int32(len(m.denseKeys))
}

// Get returns the value for key, if present.
func (m *SparseMap[V]) Get(key uint32) (V, bool) {
	var zero V
	if int(key) >= len(m.sparse) {
		return zero, false
	}
	idx := m.sparse[key]
	if idx == 0 {
		return zero, false
	}
	return m.denseVals[idx-1], true
}

// Has reports whether key is present.
func (m *SparseMap[V]) Has(key uint32) bool {
	if int(key) >= len(m.sparse) {
		return false
	}
	return m.sparse[key] != 0
}

// Delete removes key, swapping the last dense entry into its slot.
func (m *SparseMap[V]) Delete(key uint32) bool {
	if int(key) >= len(m.sparse) {
		return false
	}
	idx := m.sparse[key]
	if idx == 0 {
		return false
	}
	last := len(m.denseKeys) - 1
	lastKey := m.denseKeys[last]
	m.denseKeys[idx-1] = lastKey
	m.denseVals[idx-1] = m.denseVals[last]
	m.sparse[lastKey] = idx
	m.denseKeys = m.denseKeys[:last]
	m.denseVals = m.denseVals[:last]
	m.sparse[key] = 0
	return true
}

// Len returns the number of entries.
func (m *SparseMap[V]) Len() int { return len(m.denseKeys) }

// Each calls fn for every (key, value) pair in dense storage order,
// stopping early if fn returns false.
func (m *SparseMap[V]) Each(fn func(key uint32, val V) bool) {
	for i, k := range m.denseKeys {
		if !fn(k, m.denseVals[i]) {
			return
		}
	}
}

// NativeList is a thin, generation-agnostic growable list, standing
// in for the design's "aligned unmanaged list" (§2 L3) — the corpus has
// no library for this, so it's a direct slice wrapper.
type NativeList[T any] struct {
	items []T
}

// Append adds v and returns its index.
func (l *NativeList[T]) Append(v T) int {
	l.items = append(l.items, v)
	return len(l.items) - 1
}

// At returns the item at index i.
func (l *NativeList[T]) At(i int) T { return l.items[i] }

// Set overwrites the item at index i.
func (l *NativeList[T]) Set(i int, v T) { l.items[i] = v }

// Len returns the number of items.
func (l *NativeList[T]) Len() int { return len(l.items) }

// Clear empties the list while keeping its backing array.
func (l *NativeList[T]) Clear() { l.items = l.items[:0] }
