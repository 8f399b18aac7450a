package ecs

import (
	"reflect"
	"sync"

	"github.com/TheBitDrifter/bark"
)

// TypeID is a dense, monotonically assigned identifier for types
// registered with a TypeRegistrar (§4.1). ResourcePool does not use
// TypeIDs; it keys resources by reflect.Type.
type TypeID uint32

// invalidTypeID is returned by lookups that miss.
const invalidTypeID TypeID = 0

// TypeInfo records a type's storage footprint (§3).
type TypeInfo struct {
	ID     TypeID
	Size   uint32
	Align  uint32
}

// BundleField is one entry of a BundleInfo: where a component's bytes
// live inside the bundle value, and which component id they belong to.
type BundleField struct {
	FieldOffset uint32
	FieldSize   uint32
	ComponentID TypeID
}

// BundleInfo is the ordered field table of a bundle type (§3).
type BundleInfo struct {
	Fields []BundleField
}

// TypeRegistrar assigns dense ids to component types and
// records their size/alignment and, for bundles, field layout (§4.1).
//
// Concurrency: registration takes a writer lock; id/type-info lookups
// take a reader lock. No pack library offers a concurrent type-keyed
// interning map with this exact size/alignment side table, so this is
// one of the few pieces built directly on sync.RWMutex (see DESIGN.md).
type TypeRegistrar struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]TypeID
	infos   []TypeInfo // infos[id-1] for id >= 1
	bundles map[reflect.Type]BundleInfo
	nextID  TypeID
}

// NewTypeRegistrar creates an empty registrar. Id 0 is never assigned.
func NewTypeRegistrar() *TypeRegistrar {
	return &TypeRegistrar{
		byType:  make(map[reflect.Type]TypeID),
		bundles: make(map[reflect.Type]BundleInfo),
		nextID:  1,
	}
}

// RegisterComponent registers T, or returns the id already assigned to
// it. align == 0 means "compute a default" (§4.1).
func RegisterComponent[T any](r *TypeRegistrar, align uint32) TypeID {
	var zero T
	return RegisterComponentType(r, reflect.TypeOf(zero), align)
}

// RegisterComponentType is the non-generic form of RegisterComponent,
// used when the type is only known via reflection (e.g. bundle fields).
func RegisterComponentType(r *TypeRegistrar, t reflect.Type, align uint32) TypeID {
	r.mu.RLock()
	if id, ok := r.byType[t]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byType[t]; ok {
		return id
	}

	size := uint32(t.Size())
	if align == 0 {
		align = defaultAlignment(t, size)
	}

	id := r.nextID
	r.nextID++
	r.byType[t] = id
	r.infos = append(r.infos, TypeInfo{ID: id, Size: size, Align: align})
	return id
}

// defaultAlignment picks the larger of the type's natural alignment and
// a power-of-two <= 64 derived from size, per §4.1.
func defaultAlignment(t reflect.Type, size uint32) uint32 {
	natural := uint32(t.Align())
	if natural == 0 {
		natural = 1
	}
	derived := uint32(1)
	for derived < size && derived < 64 {
		derived <<= 1
	}
	if derived > natural {
		return derived
	}
	return natural
}

// RegisterBundle records the field-offset table of bundle type B,
// registering each field's type as a component. Idempotent.
func RegisterBundle[B any](r *TypeRegistrar) (BundleInfo, error) {
	var zero B
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return BundleInfo{}, bark.AddTrace(InvalidArgumentError{Reason: "bundle type must be a struct"})
	}

	r.mu.RLock()
	if info, ok := r.bundles[t]; ok {
		r.mu.RUnlock()
		return info, nil
	}
	r.mu.RUnlock()

	fields := reflect.VisibleFields(t)
	if len(fields) == 0 {
		return BundleInfo{}, bark.AddTrace(InvalidArgumentError{Reason: "bundle has no fields: " + t.String()})
	}

	info := BundleInfo{Fields: make([]BundleField, 0, len(fields))}
	for _, f := range fields {
		if len(f.Index) != 1 {
			continue // skip promoted/embedded sub-fields, only direct fields count
		}
		compID := RegisterComponentType(r, f.Type, 0)
		info.Fields = append(info.Fields, BundleField{
			FieldOffset: uint32(f.Offset),
			FieldSize:   uint32(f.Type.Size()),
			ComponentID: compID,
		})
	}
	if len(info.Fields) == 0 {
		return BundleInfo{}, bark.AddTrace(InvalidArgumentError{Reason: "bundle has no usable fields: " + t.String()})
	}

	r.mu.Lock()
	r.bundles[t] = info
	r.mu.Unlock()
	return info, nil
}

// GetTypeInfo returns the recorded size/alignment for id.
func (r *TypeRegistrar) GetTypeInfo(id TypeID) (TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == invalidTypeID || int(id) > len(r.infos) {
		return TypeInfo{}, false
	}
	return r.infos[id-1], true
}

// GetTypeID returns the id assigned to t, or (0, false) if unregistered.
func (r *TypeRegistrar) GetTypeID(t reflect.Type) (TypeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byType[t]
	return id, ok
}

// GetBundleInfo returns the field table for a registered bundle type.
func (r *TypeRegistrar) GetBundleInfo(t reflect.Type) (BundleInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.bundles[t]
	return info, ok
}

// Count returns the number of distinct registered types.
func (r *TypeRegistrar) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.infos)
}
