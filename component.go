package ecs

import "reflect"

// ComponentType is a typed handle to a registered component: its id plus
// enough reflection metadata to read/write it against archetype storage.
// It plays the role of the teacher's AccessibleComponent[T], generalized
// from table.Accessor[T] (opaque) to direct chunk-column addressing.
type ComponentType[T any] struct {
	id   TypeID
	size uintptr
}

// NewComponentType registers T against r and returns its typed handle.
func NewComponentType[T any](r *TypeRegistrar) ComponentType[T] {
	var zero T
	return ComponentType[T]{
		id:   RegisterComponent[T](r, 0),
		size: reflect.TypeOf(zero).Size(),
	}
}

// ID returns the component's type id.
func (c ComponentType[T]) ID() TypeID { return c.id }
