package ecs

import (
	"github.com/TheBitDrifter/bark"
	"github.com/kamstrup/intmap"
)

// DestroyCallback runs when its owning entity is destroyed through a
// Hierarchy.
type DestroyCallback func(Entity)

type hierarchyLink struct {
	parent    Entity
	hasParent bool
	onDestroy DestroyCallback
}

// Hierarchy is an optional parent/destroy-callback convenience, carried
// as a resource rather than a field on Entity/EntityInfo so the core
// entity model stays relationship-free. Mirrors the teacher's
// SetParent/Parent/SetDestroyCallback shape, minus the recycled-generation
// staleness check: here Entity.Generation already encodes that, via
// EntityPool.Valid.
type Hierarchy struct {
	pool  *EntityPool
	links *intmap.Map[uint32, hierarchyLink]
}

// NewHierarchy creates an empty hierarchy resource bound to pool, used
// to validate stored parent links against generation recycling.
func NewHierarchy(pool *EntityPool) *Hierarchy {
	return &Hierarchy{pool: pool, links: intmap.New[uint32, hierarchyLink](32)}
}

// SetParent records that child is parented to parent, and registers
// callback to run on parent's destruction. Fails if child already has a
// live parent (§ supplemented feature, EntityRelationError).
func (h *Hierarchy) SetParent(child, parent Entity, callback DestroyCallback) error {
	if existing, ok := h.links.Get(uint32(child.ID)); ok && existing.hasParent && h.pool.Valid(existing.parent) {
		return bark.AddTrace(EntityRelationError{Child: child, Parent: existing.parent})
	}
	h.links.Put(uint32(child.ID), hierarchyLink{parent: parent, hasParent: true})
	return h.SetDestroyCallback(parent, callback)
}

// Parent returns child's parent, or the zero Entity and false if it has
// none or the recorded parent has since been recycled.
func (h *Hierarchy) Parent(child Entity) (Entity, bool) {
	link, ok := h.links.Get(uint32(child.ID))
	if !ok || !link.hasParent || !h.pool.Valid(link.parent) {
		return Entity{}, false
	}
	return link.parent, true
}

// SetDestroyCallback sets the callback invoked when e is destroyed.
func (h *Hierarchy) SetDestroyCallback(e Entity, callback DestroyCallback) error {
	link, _ := h.links.Get(uint32(e.ID))
	link.onDestroy = callback
	h.links.Put(uint32(e.ID), link)
	return nil
}

// Notify runs e's destroy callback, if any, then forgets e's link data.
// Call this from a DestroyEntity path so hierarchy bookkeeping stays
// current with entity lifetime.
func (h *Hierarchy) Notify(e Entity) {
	if link, ok := h.links.Get(uint32(e.ID)); ok {
		if link.onDestroy != nil {
			link.onDestroy(e)
		}
		h.links.Del(uint32(e.ID))
	}
}
