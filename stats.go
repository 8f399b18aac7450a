package ecs

import "fmt"

// Stats is a read-only introspection snapshot: entity/archetype/chunk
// counters, no effect on core semantics. Grounded on the pack's
// World/Archetype stats split (counts, not live references).
type Stats struct {
	Entities       EntityStats
	ComponentCount int
	Archetypes     []ArchetypeStats
}

// EntityStats reports entity pool occupancy.
type EntityStats struct {
	Used     int
	Recycled int
}

// ArchetypeStats reports one archetype's row/chunk footprint.
type ArchetypeStats struct {
	ID           ArchetypeID
	Entities     int
	Chunks       int
	ComponentIDs []TypeID
}

// Stats takes a snapshot of the app's current entity/archetype counts.
func (a *App) Stats() Stats {
	archetypes := a.Archetypes.All()
	out := Stats{
		Entities: EntityStats{
			Used:     a.Entities.Len(),
			Recycled: len(a.Entities.free),
		},
		ComponentCount: a.Registrar.Count(),
		Archetypes:     make([]ArchetypeStats, 0, len(archetypes)),
	}
	for _, arch := range archetypes {
		out.Archetypes = append(out.Archetypes, ArchetypeStats{
			ID:           arch.ID(),
			Entities:     arch.EntityCount(),
			Chunks:       arch.ChunkCount(),
			ComponentIDs: arch.IDs(),
		})
	}
	return out
}

func (s Stats) String() string {
	return fmt.Sprintf("ecs.Stats{entities: %d (recycled %d), components: %d, archetypes: %d}",
		s.Entities.Used, s.Entities.Recycled, s.ComponentCount, len(s.Archetypes))
}
