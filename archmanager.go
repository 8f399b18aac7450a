package ecs

import (
	"sort"
	"sync"

	"github.com/TheBitDrifter/mask"
)

// ArchetypeManager owns every archetype in one world and resolves
// component-id sets to archetypes, generalizing the teacher's
// storage.go archetypes grouping (mask -> archetypeID) to the fuller
// match/get-or-create surface §4.5 describes.
type ArchetypeManager struct {
	registrar *TypeRegistrar
	hint      uint32

	mu         sync.RWMutex
	byMask     map[mask.Mask]ArchetypeID
	all        []*Archetype
	generation uint64 // bumped whenever a new archetype is created (§4.8 staleness check)
}

// NewArchetypeManager creates a manager with archetype 0 already present
// as the empty archetype (§4.5).
func NewArchetypeManager(registrar *TypeRegistrar, chunkByteHint uint32) *ArchetypeManager {
	m := &ArchetypeManager{
		registrar: registrar,
		hint:      chunkByteHint,
		byMask:    make(map[mask.Mask]ArchetypeID),
	}
	m.getOrCreate(nil)
	return m
}

func maskFor(ids []TypeID) mask.Mask {
	var mk mask.Mask
	for _, id := range ids {
		mk.Mark(uint32(id))
	}
	return mk
}

func sortedUnique(ids []TypeID) []TypeID {
	out := append([]TypeID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i == 0 || out[n-1] != id {
			out[n] = id
			n++
		}
	}
	return out[:n]
}

// GetOrCreate returns the archetype whose component set is exactly ids,
// creating it if no archetype yet has that signature (§4.5).
func (m *ArchetypeManager) GetOrCreate(ids []TypeID) *Archetype {
	sorted := sortedUnique(ids)
	mk := maskFor(sorted)

	m.mu.RLock()
	if id, ok := m.byMask[mk]; ok {
		a := m.all[id]
		m.mu.RUnlock()
		return a
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byMask[mk]; ok {
		return m.all[id]
	}
	return m.getOrCreate(sorted)
}

// getOrCreate assumes the write lock is already held.
func (m *ArchetypeManager) getOrCreate(sorted []TypeID) *Archetype {
	mk := maskFor(sorted)
	id := ArchetypeID(len(m.all))
	infos := make([]TypeInfo, len(sorted))
	for i, tid := range sorted {
		info, ok := m.registrar.GetTypeInfo(tid)
		if !ok {
			panic(InvalidArgumentError{Reason: "component id not registered"})
		}
		infos[i] = info
	}
	a := newArchetypeImpl(id, sorted, infos, m.hint)
	m.all = append(m.all, a)
	m.byMask[mk] = id
	m.generation++
	return a
}

// Get returns the archetype with the given id.
func (m *ArchetypeManager) Get(id ArchetypeID) *Archetype {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.all[id]
}

// Empty returns the empty archetype (id 0), the home of freshly
// reserved entities before any component is added (§4.5).
func (m *ArchetypeManager) Empty() *Archetype {
	return m.Get(0)
}

// Generation reports how many archetypes have ever been created, used
// by Schedule to detect staleness of cached match results (§4.8).
func (m *ArchetypeManager) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation
}

// Match returns every archetype containing all of "all" and all of
// "requires" (the system's own per-entity/span access types, kept
// separate from the author-declared "all" filter per §4.5), at least one
// of "any" (if non-empty), and none of "none".
func (m *ArchetypeManager) Match(all, any, none, requires []TypeID) []*Archetype {
	allMask := maskFor(append(append([]TypeID(nil), all...), requires...))
	anyMask := maskFor(any)
	noneMask := maskFor(none)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Archetype
	for _, a := range m.all {
		am := a.Mask()
		if !am.ContainsAll(allMask) {
			continue
		}
		if len(any) > 0 && !am.ContainsAny(anyMask) {
			continue
		}
		if !am.ContainsNone(noneMask) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// All returns every archetype, including the empty one.
func (m *ArchetypeManager) All() []*Archetype {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Archetype(nil), m.all...)
}

// Commit drains every archetype's pending holes and reservations. Called
// once at each schedule commit point, after every Commands buffer for
// that tick has replayed its queued mutations (§4.6, §5).
func (m *ArchetypeManager) Commit() {
	m.mu.RLock()
	all := m.all
	m.mu.RUnlock()
	for _, a := range all {
		a.Commit()
	}
}
