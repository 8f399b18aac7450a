package ecs

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// ResourcePool is the process-wide singleton store, one slot per
// resource type (§4.2). Value-typed resources are copied into a pinned,
// aligned byte buffer so systems can hold an interior reference across
// ticks; reference-typed resources (pointers, maps, channels...) are
// kept as-is since Go already gives them stable identity.
//
// Keyed by reflect.Type rather than TypeID: resources don't need
// archetype-column addressing, only identity, and kamstrup/intmap (used
// elsewhere for genuinely sparse integer keys) has no string/type-keyed
// variant — so this one lookup stays on a plain Go map, justified in
// DESIGN.md.
type ResourcePool struct {
	mu    sync.RWMutex
	slots map[reflect.Type]*resourceSlot
}

type resourceSlot struct {
	buf []byte     // backing storage for value-typed resources
	ptr unsafe.Pointer
}

// NewResourcePool creates an empty pool.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{slots: make(map[reflect.Type]*resourceSlot)}
}

// AddResource installs v as the sole instance of its type. Fails if a
// value of that type is already present (§4.2).
func AddResource[T any](p *ResourcePool, v T) error {
	t := reflect.TypeOf(v)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.slots[t]; ok {
		return bark.AddTrace(DuplicateResourceError{Type: t.String()})
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice:
		cell := new(T)
		*cell = v
		p.slots[t] = &resourceSlot{ptr: unsafe.Pointer(cell)}
		return nil
	}

	size := reflect.TypeOf(v).Size()
	buf := newAlignedBuffer(uint32(size), uint32(reflect.TypeOf(v).Align()))
	ptr := unsafe.Pointer(unsafe.SliceData(buf))
	*(*T)(ptr) = v
	p.slots[t] = &resourceSlot{buf: buf, ptr: ptr}
	return nil
}

// GetResource returns a stable pointer to the resource of type T, for
// the lifetime of the app (§4.2).
func GetResource[T any](p *ResourcePool) (*T, error) {
	var zero T
	t := reflect.TypeOf(zero)
	p.mu.RLock()
	defer p.mu.RUnlock()
	slot, ok := p.slots[t]
	if !ok {
		return nil, bark.AddTrace(ResourceNotFoundError{Type: t.String()})
	}
	return (*T)(slot.ptr), nil
}

// HasResource reports whether a resource of type T is present.
func HasResource[T any](p *ResourcePool) bool {
	var zero T
	t := reflect.TypeOf(zero)
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.slots[t]
	return ok
}
