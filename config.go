package ecs

import "runtime"

// Config holds process-wide tunables for storage and scheduling. It
// follows the teacher's package-level config value, generalized to the
// knobs this runtime actually needs.
var Config config = config{
	ChunkByteHint:     16 * 1024,
	DefaultGroupSize:   1024,
	DispatchQueueDepth: 256,
}

type config struct {
	// ChunkByteHint is the target chunk size (§4.3); the real chunk size
	// is the smallest power of two >= this that yields capacity >= 1.
	ChunkByteHint uint32

	// DefaultGroupSize is used by Archetype.IterateChunksAmongType when a
	// system doesn't declare its own group size (§4.4).
	DefaultGroupSize int

	// DispatchQueueDepth bounds the ThreadPool's task and completion
	// channels (§4.10, §5).
	DispatchQueueDepth int
}

// SetChunkByteHint overrides the default chunk size hint.
func (c *config) SetChunkByteHint(bytes uint32) {
	c.ChunkByteHint = bytes
}

// SetDefaultGroupSize overrides the default parallel chunk-grouping size.
func (c *config) SetDefaultGroupSize(n int) {
	c.DefaultGroupSize = n
}

// DefaultWorkerCount returns half the host's hardware threads, per
// spec.md §6 ("default: half the host's hardware threads"), floored at 1.
func DefaultWorkerCount() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}
