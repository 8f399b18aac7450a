package ecs

import (
	"sync"

	"github.com/TheBitDrifter/mask"
)

// ArchetypeID identifies an archetype within one ArchetypeManager.
// Id 0 is always the empty archetype (§4.5).
type ArchetypeID uint32

type archPosition struct {
	chunk int
	row   int
}

// moveCache remembers, for one destination archetype, the destination's
// column index for each column of this archetype (-1 where the
// destination lacks it) — the "common-column indices" cache of §3/§4.4.
type moveCache struct {
	dstCols []int // srcCol -> dstCol, or -1 if dst doesn't have it
}

// Archetype wraps a Table with entity bookkeeping: the entity-in-archetype
// sparse index, hole-draining commit, and per-destination move caches
// (§4.4). It generalizes the teacher's archetype.go (id + table.Table)
// to the full bookkeeping this spec's Commands/ArchetypeManager need.
type Archetype struct {
	id    ArchetypeID
	ids   []TypeID // sorted, deduplicated
	sig   mask.Mask
	table *Table

	mu         sync.Mutex // guards entityBy and dirty; entityPos is not locked
	entityPos  *SparseMap[archPosition]
	entityBy   [][]Entity // entityBy[chunk][row] = Entity resident there
	dirty      bool
	moveCaches map[ArchetypeID]*moveCache
}

func newArchetypeImpl(id ArchetypeID, ids []TypeID, infos []TypeInfo, hint uint32) *Archetype {
	var sig mask.Mask
	for _, cid := range ids {
		sig.Mark(uint32(cid))
	}
	return &Archetype{
		id:         id,
		ids:        ids,
		sig:        sig,
		table:      newTable(infos, hint),
		entityPos:  NewSparseMap[archPosition](),
		moveCaches: make(map[ArchetypeID]*moveCache),
	}
}

// ID returns the archetype's id.
func (a *Archetype) ID() ArchetypeID { return a.id }

// IDs returns the archetype's sorted component-id list.
func (a *Archetype) IDs() []TypeID { return a.ids }

// Mask returns the archetype's cached component-set signature.
func (a *Archetype) Mask() mask.Mask { return a.sig }

// ColumnIndex returns the column index backing component id, if present.
func (a *Archetype) ColumnIndex(id TypeID) (int, bool) {
	return a.table.layout.columnIndex(id)
}

func (a *Archetype) ensureChunkRows(ci int) {
	for len(a.entityBy) <= ci {
		a.entityBy = append(a.entityBy, make([]Entity, a.table.capacity))
	}
}

// reserve claims the next row in this archetype's table.
func (a *Archetype) reserve() (chunkIndex, row int) {
	ci, row := a.table.reserve()
	a.mu.Lock()
	a.ensureChunkRows(ci)
	a.dirty = true
	a.mu.Unlock()
	return ci, row
}

// columnSpan exposes the raw bytes of one column within one chunk, used
// by ComponentType[T].Get.
func (a *Archetype) columnSpan(id TypeID, chunkIndex int) []byte {
	col, ok := a.ColumnIndex(id)
	if !ok {
		panic(SystemShapeError{Reason: "component not present in archetype"})
	}
	return a.table.columnSpan(col, chunkIndex)
}

// putComponentData raw-copies size bytes into column col at (chunk,row).
func (a *Archetype) putComponentData(col int, chunkIndex, row int, bytes []byte) {
	dst := a.table.rowBytes(col, chunkIndex, row)
	copy(dst, bytes)
}

// commonColumns returns, lazily cached, the srcCol->dstCol map between a
// and dst (§4.4 "cached src_col_index -> dst_col_index table keyed by
// destination archetype id").
func (a *Archetype) commonColumns(dst *Archetype) *moveCache {
	a.mu.Lock()
	defer a.mu.Unlock()
	if mc, ok := a.moveCaches[dst.id]; ok {
		return mc
	}
	mc := &moveCache{dstCols: make([]int, len(a.ids))}
	for i, id := range a.ids {
		if dc, ok := dst.ColumnIndex(id); ok {
			mc.dstCols[i] = dc
		} else {
			mc.dstCols[i] = -1
		}
	}
	a.moveCaches[dst.id] = mc
	return mc
}

// moveDataTo copies the columns common to a and dst from
// (srcChunk,srcRow) to (dstChunk,dstRow) on dst (§4.4).
func (a *Archetype) moveDataTo(dst *Archetype, srcChunk, srcRow, dstChunk, dstRow int) {
	mc := a.commonColumns(dst)
	for srcCol, dstCol := range mc.dstCols {
		if dstCol < 0 {
			continue
		}
		srcBytes := a.table.rowBytes(srcCol, srcChunk, srcRow)
		dstBytes := dst.table.rowBytes(dstCol, dstChunk, dstRow)
		copy(dstBytes, srcBytes)
	}
}

// markRemove pushes (chunk,row) onto that chunk's hole stack. Not
// visible until Commit drains it.
func (a *Archetype) markRemove(entityID EntityID, chunkIndex, row int) {
	a.table.chunkAt(chunkIndex).pushHole(uint32(row))
	a.mu.Lock()
	a.dirty = true
	a.mu.Unlock()
}

// commitAddEntity records e as resident at (chunkIndex,row) in this
// archetype's own entity index (§4.4).
func (a *Archetype) commitAddEntity(e Entity, chunkIndex, row int) {
	a.mu.Lock()
	a.ensureChunkRows(chunkIndex)
	a.entityBy[chunkIndex][row] = e
	a.mu.Unlock()
	a.entityPos.Put(uint32(e.ID), archPosition{chunk: chunkIndex, row: row})
}

// commitRemoveEntity drops e from this archetype's own entity index. The
// vacated row itself is freed by the hole-draining pass in Commit.
func (a *Archetype) commitRemoveEntity(e Entity) {
	a.entityPos.Delete(uint32(e.ID))
}

// Commit drains holes (compacting rows), then folds reservations into
// sizes (§4.4).
func (a *Archetype) Commit() {
	a.mu.Lock()
	dirty := a.dirty
	a.dirty = false
	a.mu.Unlock()
	if !dirty {
		return
	}

	for ci := 0; ci < a.table.ChunkCount(); ci++ {
		chunk := a.table.chunkAt(ci)
		for {
			hole, ok := chunk.popHole()
			if !ok {
				break
			}
			last := chunk.size + uint32(chunk.reservation.Load())
			if last == 0 {
				continue
			}
			last--
			wasReserved := last >= chunk.size
			if last != hole {
				a.moveRowWithinChunk(ci, int(last), int(hole))
			} else {
				// the hole IS the last row; just drop bookkeeping for it
				a.mu.Lock()
				a.entityBy[ci][hole] = Entity{}
				a.mu.Unlock()
			}
			if wasReserved {
				chunk.reservation.Add(-1)
			} else {
				chunk.size--
			}
		}
	}
	a.table.commitReserved()
}

// moveRowWithinChunk copies every column's bytes from row "from" to row
// "to" inside the same chunk, and updates entity bookkeeping to match.
func (a *Archetype) moveRowWithinChunk(chunkIndex, from, to int) {
	for col := range a.ids {
		dst := a.table.rowBytes(col, chunkIndex, to)
		src := a.table.rowBytes(col, chunkIndex, from)
		copy(dst, src)
	}
	a.mu.Lock()
	moved := a.entityBy[chunkIndex][from]
	a.entityBy[chunkIndex][to] = moved
	a.entityBy[chunkIndex][from] = Entity{}
	a.mu.Unlock()
	if moved.ID != 0 {
		a.entityPos.Put(uint32(moved.ID), archPosition{chunk: chunkIndex, row: to})
	}
}

// EntityCount returns the number of entities currently resident.
func (a *Archetype) EntityCount() int { return a.entityPos.Len() }

// IterateDataAmongChunk yields (bytes, rowCount) once per chunk for the
// given component id (§4.4).
func (a *Archetype) IterateDataAmongChunk(id TypeID) func(yield func([]byte, int) bool) {
	return func(yield func([]byte, int) bool) {
		col, ok := a.ColumnIndex(id)
		if !ok {
			return
		}
		for ci := 0; ci < a.table.ChunkCount(); ci++ {
			chunk := a.table.chunkAt(ci)
			if chunk.size == 0 {
				continue
			}
			span := a.table.columnSpan(col, ci)
			size := a.table.layout.sizes[col]
			if !yield(span[:uint32(chunk.size)*size], int(chunk.size)) {
				return
			}
		}
	}
}

// ChunkGroup is one greedily accumulated run of chunks for parallel
// dispatch (§4.4).
type ChunkGroup struct {
	FirstChunk     int
	ChunkCount     int
	StartingEntity int
}

// IterateChunksAmongType greedily groups consecutive chunks until the
// running row count >= groupSize, then emits a group (§4.4).
func (a *Archetype) IterateChunksAmongType(groupSize int) []ChunkGroup {
	if groupSize <= 0 {
		groupSize = Config.DefaultGroupSize
	}
	var groups []ChunkGroup
	first := 0
	running := 0
	startEntity := 0
	groupStartEntity := 0
	for ci := 0; ci < a.table.ChunkCount(); ci++ {
		chunk := a.table.chunkAt(ci)
		if chunk.size == 0 {
			continue
		}
		if running == 0 {
			first = ci
			groupStartEntity = startEntity
		}
		running += int(chunk.size)
		startEntity += int(chunk.size)
		if running >= groupSize {
			groups = append(groups, ChunkGroup{FirstChunk: first, ChunkCount: ci - first + 1, StartingEntity: groupStartEntity})
			running = 0
		}
	}
	if running > 0 {
		groups = append(groups, ChunkGroup{FirstChunk: first, ChunkCount: a.table.ChunkCount() - first, StartingEntity: groupStartEntity})
	}
	return groups
}

// GetChunkData returns the bytes and committed row count for one
// (component, chunk) pair.
func (a *Archetype) GetChunkData(id TypeID, chunkIndex int) ([]byte, int) {
	col, ok := a.ColumnIndex(id)
	if !ok {
		return nil, 0
	}
	chunk := a.table.chunkAt(chunkIndex)
	span := a.table.columnSpan(col, chunkIndex)
	size := a.table.layout.sizes[col]
	return span[:uint32(chunk.size)*size], int(chunk.size)
}

// EntitiesSpan yields (row, Entity) pairs for every resident entity,
// chunk order then row order (§4.4, §5 ordering guarantee).
func (a *Archetype) EntitiesSpan() func(yield func(int, Entity) bool) {
	return func(yield func(int, Entity) bool) {
		row := 0
		for ci := 0; ci < a.table.ChunkCount(); ci++ {
			chunk := a.table.chunkAt(ci)
			a.mu.Lock()
			rows := a.entityBy[ci]
			a.mu.Unlock()
			for r := 0; r < int(chunk.size); r++ {
				if !yield(row, rows[r]) {
					return
				}
				row++
			}
		}
	}
}

// EntityAt returns the entity resident at (chunkIndex, row).
func (a *Archetype) EntityAt(chunkIndex, row int) Entity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entityBy[chunkIndex][row]
}

// ChunkCount returns the number of allocated chunks.
func (a *Archetype) ChunkCount() int { return a.table.ChunkCount() }

// ChunkSize returns the committed row count of one chunk.
func (a *Archetype) ChunkSize(chunkIndex int) int {
	return int(a.table.chunkAt(chunkIndex).size)
}
