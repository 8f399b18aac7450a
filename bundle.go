package ecs

import (
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/bark"
)

// bundleIDs returns the component ids of every field of a registered
// bundle type, in field-table order.
func bundleIDs(info BundleInfo) []TypeID {
	ids := make([]TypeID, len(info.Fields))
	for i, f := range info.Fields {
		ids[i] = f.ComponentID
	}
	return ids
}

// bundleFieldBytes returns the raw bytes of one field of a bundle value,
// addressed by its recorded offset/size (§3 bundle field table).
func bundleFieldBytes[B any](value *B, f BundleField) []byte {
	base := unsafe.Pointer(value)
	fieldPtr := unsafe.Add(base, f.FieldOffset)
	return unsafe.Slice((*byte)(fieldPtr), f.FieldSize)
}

// lookupBundle resolves B's BundleInfo, registering it on first use.
func lookupBundle[B any](r *TypeRegistrar) (BundleInfo, error) {
	var zero B
	t := reflect.TypeOf(zero)
	if info, ok := r.GetBundleInfo(t); ok {
		return info, nil
	}
	info, err := RegisterBundle[B](r)
	if err != nil {
		return BundleInfo{}, bark.AddTrace(err)
	}
	return info, nil
}
