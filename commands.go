package ecs

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/kamstrup/intmap"
)

type mutationKind int

const (
	mutAddOne mutationKind = iota
	mutAddBundle
	mutRemoveOne
	mutRemoveBundle
	mutRemoveTuple
)

type pendingEntityInfo struct {
	archetype *Archetype
	chunk     int
	row       int
}

type transferCacheEntry struct {
	dst     *Archetype
	addCols []int // valid only for add-shaped mutation kinds
}

// Commands is one worker's deferred mutation buffer (§4.6). One is owned
// per worker thread plus one for the single-threaded path; a system is
// handed the buffer bound to its executing thread. Every structural
// mutation is staged here and only replayed into archetype storage at
// the schedule's next commit point.
type Commands struct {
	registrar *TypeRegistrar
	pool      *EntityPool
	manager   *ArchetypeManager

	modifiedEntityInfo *intmap.Map[uint32, pendingEntityInfo]
	removedEntities    *intmap.Map[uint32, Entity]
	transferCache      map[string]*transferCacheEntry

	currentEntity    Entity
	hasCurrentEntity bool
}

// NewCommands creates one buffer bound to the given world state.
func NewCommands(registrar *TypeRegistrar, pool *EntityPool, manager *ArchetypeManager) *Commands {
	return &Commands{
		registrar:          registrar,
		pool:               pool,
		manager:            manager,
		modifiedEntityInfo: intmap.New[uint32, pendingEntityInfo](64),
		removedEntities:    intmap.New[uint32, Entity](16),
		transferCache:      make(map[string]*transferCacheEntry),
	}
}

func transferKey(src ArchetypeID, kind mutationKind, ids []TypeID) string {
	return fmt.Sprintf("%d:%d:%v", src, kind, ids)
}

func unionIDs(a, b []TypeID) []TypeID {
	return sortedUnique(append(append([]TypeID(nil), a...), b...))
}

func subtractIDs(a, b []TypeID) []TypeID {
	out := make([]TypeID, 0, len(a))
	for _, id := range a {
		drop := false
		for _, r := range b {
			if id == r {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, id)
		}
	}
	return out
}

// CreateEntity reserves a new entity and stages it in the empty
// archetype until a subsequent add lands it somewhere real (§4.6.a).
func (c *Commands) CreateEntity() Entity {
	e := c.pool.Reserve()
	c.removedEntities.Del(uint32(e.ID))
	empty := c.manager.Empty()
	chunkIdx, row := empty.reserve()
	c.modifiedEntityInfo.Put(uint32(e.ID), pendingEntityInfo{archetype: empty, chunk: chunkIdx, row: row})
	return e
}

// DestroyEntity stages e for removal (§4.6.b). Returns false if e is
// already staged for removal or isn't a known entity.
func (c *Commands) DestroyEntity(e Entity) bool {
	if _, ok := c.removedEntities.Get(uint32(e.ID)); ok {
		return false
	}
	if pend, ok := c.modifiedEntityInfo.Get(uint32(e.ID)); ok {
		pend.archetype.markRemove(e.ID, pend.chunk, pend.row)
		c.modifiedEntityInfo.Del(uint32(e.ID))
	} else {
		info, ok := c.pool.Info(e)
		if !ok {
			return false
		}
		arch := c.manager.Get(info.Archetype)
		arch.markRemove(e.ID, info.ChunkIndex, info.IndexInChunk)
	}
	c.removedEntities.Put(uint32(e.ID), e)
	c.pool.MarkRemove(e)
	return true
}

// resolveSource finds the entity's current source position, preferring
// an uncommitted pending position over the committed one (§4.6 step 2).
func (c *Commands) resolveSource(e Entity) (*Archetype, int, int, bool) {
	if _, ok := c.removedEntities.Get(uint32(e.ID)); ok {
		return nil, 0, 0, false
	}
	if pend, ok := c.modifiedEntityInfo.Get(uint32(e.ID)); ok {
		return pend.archetype, pend.chunk, pend.row, true
	}
	info, ok := c.pool.Info(e)
	if !ok {
		return nil, 0, 0, false
	}
	return c.manager.Get(info.Archetype), info.ChunkIndex, info.IndexInChunk, true
}

// transition runs the common add/remove skeleton of §4.6: resolve
// source, consult/populate the transfer cache, reserve a destination
// row, let write fill in new column data, move the common columns
// across, and mark the old row a hole.
func (c *Commands) transition(e Entity, kind mutationKind, deltaIDs []TypeID, write func(dst *Archetype, chunkIdx, row int, addCols []int)) bool {
	src, srcChunk, srcRow, ok := c.resolveSource(e)
	if !ok {
		return false
	}

	key := transferKey(src.id, kind, deltaIDs)
	entry, ok := c.transferCache[key]
	if !ok {
		var dstIDs []TypeID
		switch kind {
		case mutAddOne, mutAddBundle:
			dstIDs = unionIDs(src.ids, deltaIDs)
		default:
			dstIDs = subtractIDs(src.ids, deltaIDs)
		}
		dst := c.manager.GetOrCreate(dstIDs)
		entry = &transferCacheEntry{dst: dst}
		if kind == mutAddOne || kind == mutAddBundle {
			entry.addCols = make([]int, len(deltaIDs))
			for i, id := range deltaIDs {
				col, _ := dst.ColumnIndex(id)
				entry.addCols[i] = col
			}
		}
		c.transferCache[key] = entry
	}

	dst := entry.dst
	dstChunk, dstRow := dst.reserve()
	if write != nil {
		write(dst, dstChunk, dstRow, entry.addCols)
	}
	src.moveDataTo(dst, srcChunk, srcRow, dstChunk, dstRow)
	src.markRemove(e.ID, srcChunk, srcRow)
	c.modifiedEntityInfo.Put(uint32(e.ID), pendingEntityInfo{archetype: dst, chunk: dstChunk, row: dstRow})
	return true
}

func typeIDOf[T any](r *TypeRegistrar) TypeID {
	var zero T
	id, ok := r.GetTypeID(reflect.TypeOf(zero))
	if !ok {
		id = RegisterComponent[T](r, 0)
	}
	return id
}

func valueBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// AddComponent stages adding one component to e (§4.6.c).
func AddComponent[T any](c *Commands, e Entity, value T) bool {
	id := typeIDOf[T](c.registrar)
	return c.transition(e, mutAddOne, []TypeID{id}, func(dst *Archetype, chunkIdx, row int, addCols []int) {
		dst.putComponentData(addCols[0], chunkIdx, row, valueBytes(&value))
	})
}

// AddComponents stages adding every field of bundle B to e, copying each
// field from its recorded offset (§4.6.d).
func AddComponents[B any](c *Commands, e Entity, bundle B) (bool, error) {
	info, err := lookupBundle[B](c.registrar)
	if err != nil {
		return false, err
	}
	ids := bundleIDs(info)
	ok := c.transition(e, mutAddBundle, ids, func(dst *Archetype, chunkIdx, row int, addCols []int) {
		for i, f := range info.Fields {
			dst.putComponentData(addCols[i], chunkIdx, row, bundleFieldBytes(&bundle, f))
		}
	})
	return ok, nil
}

// RemoveComponent stages removing one component from e (§4.6.e).
func RemoveComponent[T any](c *Commands, e Entity) bool {
	id := typeIDOf[T](c.registrar)
	return c.transition(e, mutRemoveOne, []TypeID{id}, nil)
}

// RemoveComponents stages removing every field of bundle B from e.
func RemoveComponents[B any](c *Commands, e Entity) (bool, error) {
	info, err := lookupBundle[B](c.registrar)
	if err != nil {
		return false, err
	}
	ok := c.transition(e, mutRemoveBundle, bundleIDs(info), nil)
	return ok, nil
}

// RemoveComponentsTuple stages removing an explicit set of components
// from e, for callers that already know the ids (§4.6.e).
func (c *Commands) RemoveComponentsTuple(e Entity, ids ...TypeID) bool {
	return c.transition(e, mutRemoveTuple, ids, nil)
}

// SetCurrentEntity sets the "current entity" read-against-committed-
// state helper (§4.6). Only valid for already-committed entities.
func (c *Commands) SetCurrentEntity(e Entity) {
	c.currentEntity = e
	c.hasCurrentEntity = c.pool.Valid(e)
}

// ClearCurrentEntity unsets the current entity.
func (c *Commands) ClearCurrentEntity() {
	c.currentEntity = Entity{}
	c.hasCurrentEntity = false
}

// CurrentComponent returns a reference to T on the current entity,
// reading only against committed state. Returns nil if unset or missing.
func CurrentComponent[T any](c *Commands) *T {
	if !c.hasCurrentEntity {
		return nil
	}
	ct := ComponentType[T]{id: typeIDOf[T](c.registrar), size: unsafe.Sizeof(*new(T))}
	v, ok := ct.GetFromEntity(c.pool, c.manager, c.currentEntity)
	if !ok {
		return nil
	}
	return v
}

// Commit drains this buffer into archetype storage (§4.6 "Commit").
// Called once per buffer at each schedule commit point.
func (c *Commands) Commit() {
	c.modifiedEntityInfo.ForEach(func(id uint32, pend pendingEntityInfo) bool {
		e := Entity{ID: EntityID(id), Generation: c.pool.GenerationOf(EntityID(id))}
		if old, ok := c.pool.Info(e); ok {
			c.manager.Get(old.Archetype).commitRemoveEntity(e)
		}
		c.pool.CommitReserved(e, EntityInfo{Archetype: pend.archetype.id, ChunkIndex: pend.chunk, IndexInChunk: pend.row})
		pend.archetype.commitAddEntity(e, pend.chunk, pend.row)
		return true
	})
	c.removedEntities.ForEach(func(id uint32, e Entity) bool {
		// DestroyEntity already cleared residency, so Info would miss; read
		// the slot's last committed location directly.
		c.pool.mu.Lock()
		slot := c.pool.slots[e.ID]
		c.pool.mu.Unlock()
		if slot.generation == e.Generation {
			c.manager.Get(slot.info.Archetype).commitRemoveEntity(e)
		}
		c.pool.CommitRemove(e)
		return true
	})
	c.modifiedEntityInfo.Clear()
	c.removedEntities.Clear()
}
