package ecs

// Cursor provides direct iteration over entities matching a query,
// outside the scheduler — for setup code, tests, and tools. It
// generalizes the teacher's Cursor (one table.Table per archetype) to
// this module's chunked Table, tracking chunk+row instead of a single
// flat entity index.
type Cursor struct {
	query   QueryNode
	manager *ArchetypeManager

	matched          []*Archetype
	archIndex        int
	currentArchetype *Archetype
	chunkIndex       int
	rowIndex         int
	chunkSize        int

	initialized bool
}

// NewCursor creates a cursor for the given query against manager.
func NewCursor(query QueryNode, manager *ArchetypeManager) *Cursor {
	return &Cursor{query: query, manager: manager}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	for _, arch := range c.manager.All() {
		if c.query.Evaluate(arch) {
			c.matched = append(c.matched, arch)
		}
	}
	c.rowIndex = -1
	if len(c.matched) > 0 {
		c.currentArchetype = c.matched[0]
		c.chunkSize = c.currentArchetype.ChunkSize(0)
	}
	c.initialized = true
}

// Next advances to the next matching entity, returning false once
// exhausted.
func (c *Cursor) Next() bool {
	c.initialize()
	for {
		if c.currentArchetype == nil {
			return false
		}
		c.rowIndex++
		if c.rowIndex < c.chunkSize {
			return true
		}
		c.chunkIndex++
		if c.chunkIndex < c.currentArchetype.ChunkCount() {
			c.rowIndex = -1
			c.chunkSize = c.currentArchetype.ChunkSize(c.chunkIndex)
			continue
		}
		c.archIndex++
		if c.archIndex >= len(c.matched) {
			c.currentArchetype = nil
			return false
		}
		c.currentArchetype = c.matched[c.archIndex]
		c.chunkIndex = 0
		c.rowIndex = -1
		c.chunkSize = c.currentArchetype.ChunkSize(0)
	}
}

// CurrentEntity returns the entity at the cursor's current position.
func (c *Cursor) CurrentEntity() Entity {
	return c.currentArchetype.EntityAt(c.chunkIndex, c.rowIndex)
}

// Reset rewinds the cursor so a subsequent Next re-runs the query.
func (c *Cursor) Reset() {
	c.matched = nil
	c.initialized = false
	c.currentArchetype = nil
	c.archIndex = 0
	c.chunkIndex = 0
	c.rowIndex = -1
}

// TotalMatched reports how many entities match the cursor's query.
func (c *Cursor) TotalMatched() int {
	c.initialize()
	total := 0
	for _, a := range c.matched {
		total += a.EntityCount()
	}
	return total
}
