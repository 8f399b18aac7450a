package ecs

import "unsafe"

// alignUp rounds v up to the next multiple of align (align must be a
// power of two).
func alignUp(v, align uint32) uint32 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// nextPow2 returns the smallest power of two >= v (v >= 1).
func nextPow2(v uint32) uint32 {
	if v <= 1 {
		return 1
	}
	p := uint32(1)
	for p < v {
		p <<= 1
	}
	return p
}

// newAlignedBuffer allocates a byte slice of size bytes whose first byte
// sits at an address that is a multiple of align. Go's allocator doesn't
// expose alignment beyond the natural alignment of the element type, so
// chunks over-allocate and return an aligned sub-slice — the same trick
// the teacher's sibling storage engine would need internally for SoA
// column blocks (§4.3).
func newAlignedBuffer(size, align uint32) []byte {
	if align <= 1 {
		return make([]byte, size)
	}
	raw := make([]byte, size+uint64sub1(align))
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	misalign := uint32(base % uintptr(align))
	var start uint32
	if misalign != 0 {
		start = align - misalign
	}
	return raw[start : start+size : start+size]
}

func uint64sub1(align uint32) uint32 {
	if align == 0 {
		return 0
	}
	return align - 1
}
