package ecs

import "sync"

// Layout computes per-column byte offsets for one archetype's row, plus
// the resulting row stride and chunk capacity (§4.3).
type Layout struct {
	ids       []TypeID
	sizes     []uint32
	aligns    []uint32
	offsets   []uint32
	maxAlign  uint32
	rowStride uint32
}

// newLayout lays columns out in the given (registration-list) order,
// advancing a running offset to satisfy each column's alignment.
func newLayout(infos []TypeInfo) Layout {
	n := len(infos)
	l := Layout{
		ids:     make([]TypeID, n),
		sizes:   make([]uint32, n),
		aligns:  make([]uint32, n),
		offsets: make([]uint32, n),
	}
	var running uint32
	maxAlign := uint32(1)
	for i, ti := range infos {
		align := ti.Align
		if align == 0 {
			align = 1
		}
		running = alignUp(running, align)
		l.ids[i] = ti.ID
		l.sizes[i] = ti.Size
		l.aligns[i] = align
		l.offsets[i] = running
		running += ti.Size
		if align > maxAlign {
			maxAlign = align
		}
	}
	l.maxAlign = maxAlign
	l.rowStride = alignUp(running, maxAlign)
	return l
}

// columnIndex returns the column index for id, if present.
func (l Layout) columnIndex(id TypeID) (int, bool) {
	for i, cid := range l.ids {
		if cid == id {
			return i, true
		}
	}
	return -1, false
}

// chunkDims picks a chunk byte size (smallest power of two >= hint that
// yields capacity >= 1) and the corresponding row capacity (§4.3).
func (l Layout) chunkDims(hint uint32) (chunkBytes, capacity uint32) {
	stride := l.rowStride
	if stride == 0 {
		stride = 1 // marker-only archetype: rows carry no bytes
	}
	chunkBytes = nextPow2(hint)
	for chunkBytes/stride < 1 {
		chunkBytes *= 2
	}
	capacity = chunkBytes / stride
	return
}

// Table is the chunked columnar storage owned by exactly one archetype
// (§4.3). Chunk creation is protected by a lock; row reservation within
// the last chunk is lock-free.
type Table struct {
	layout     Layout
	chunkBytes uint32
	capacity   uint32
	chunks     []*Chunk
	mu         sync.Mutex
}

func newTable(infos []TypeInfo, hint uint32) *Table {
	layout := newLayout(infos)
	chunkBytes, capacity := layout.chunkDims(hint)
	return &Table{layout: layout, chunkBytes: chunkBytes, capacity: capacity}
}

// reserve claims the next free row, allocating a new chunk if needed.
// Returns the absolute position the row will occupy post-commit.
func (t *Table) reserve() (chunkIndex int, row int) {
	for {
		t.mu.Lock()
		n := len(t.chunks)
		t.mu.Unlock()

		if n > 0 {
			idx := n - 1
			t.mu.Lock()
			c := t.chunks[idx]
			t.mu.Unlock()
			if r, ok := c.tryReserve(); ok {
				return idx, int(r)
			}
		}

		t.mu.Lock()
		if len(t.chunks) == n { // nobody else grew it meanwhile
			t.chunks = append(t.chunks, newChunk(t.chunkBytes, t.layout.maxAlign, t.capacity))
		}
		t.mu.Unlock()
	}
}

// commitReserved folds every chunk's pending reservation into size.
func (t *Table) commitReserved() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.chunks {
		c.commitReserved()
	}
}

// columnSpan returns the byte range backing column col within chunk.
func (t *Table) columnSpan(col int, chunkIndex int) []byte {
	c := t.chunks[chunkIndex]
	size := t.layout.sizes[col]
	start := t.layout.offsets[col] * t.capacity
	return c.data[start : start+size*t.capacity]
}

// rowBytes returns the size*1 byte slice for one row of column col.
func (t *Table) rowBytes(col int, chunkIndex, row int) []byte {
	span := t.columnSpan(col, chunkIndex)
	size := t.layout.sizes[col]
	off := uint32(row) * size
	return span[off : off+size]
}

// ChunkCount returns the number of allocated chunks.
func (t *Table) ChunkCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.chunks)
}

// chunkAt returns the chunk at idx (caller must ensure idx is valid).
func (t *Table) chunkAt(idx int) *Chunk {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chunks[idx]
}
