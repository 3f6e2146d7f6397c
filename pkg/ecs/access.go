package ecs

import "unsafe"

// AddComponentRaw attaches a zero-valued component id to e, transitioning
// its archetype, and returns a byte view of the value's storage for the
// caller to fill in place. If e already carries id, the existing storage
// is returned unchanged. This is the erased entry point a deserializing
// registry descriptor uses; AddComponent is its typed counterpart.
func AddComponentRaw(w *World, e Entity, id ComponentID) ([]byte, bool) {
	arch, row, ok := w.Locate(e)
	if !ok {
		return nil, false
	}
	if col := arch.slot[id]; col >= 0 {
		return arch.cell(int(col), row), true
	}
	dst := w.archetypeFor(arch.mask.with(id))
	dstRow := w.moveRow(e, arch, row, dst)
	return dst.cell(int(dst.slot[id]), dstRow), true
}

// SetComponentRaw copies value into e's storage for component id, adding
// the component first if absent.
func SetComponentRaw(w *World, e Entity, id ComponentID, value []byte) bool {
	cell, ok := AddComponentRaw(w, e, id)
	if !ok {
		return false
	}
	copy(cell, value)
	return true
}

// GetComponentRaw returns a byte view of e's storage for component id, or
// ok == false if e is dead or does not carry it.
func GetComponentRaw(w *World, e Entity, id ComponentID) ([]byte, bool) {
	arch, row, ok := w.Locate(e)
	if !ok {
		return nil, false
	}
	col := arch.slot[id]
	if col < 0 {
		return nil, false
	}
	return arch.cell(int(col), row), true
}

// HasComponentRaw reports whether e carries component id.
func HasComponentRaw(w *World, e Entity, id ComponentID) bool {
	arch, _, ok := w.Locate(e)
	return ok && arch.slot[id] >= 0
}

// RemoveComponentRaw detaches component id from e if present. Removing an
// absent component is a no-op, not an error.
func RemoveComponentRaw(w *World, e Entity, id ComponentID) bool {
	arch, row, ok := w.Locate(e)
	if !ok {
		return false
	}
	if arch.slot[id] < 0 {
		return true
	}
	w.moveRow(e, arch, row, w.archetypeFor(arch.mask.without(id)))
	return true
}

// AddComponent attaches a zero-valued T to e and returns a pointer to its
// storage, or the existing value's pointer if e already carries T. The
// pointer is invalidated by any archetype-changing call on the world.
func AddComponent[T any](w *World, e Entity) (*T, bool) {
	id, ok := TryGetID[T]()
	if !ok {
		return nil, false
	}
	cell, ok := AddComponentRaw(w, e, id)
	if !ok {
		return nil, false
	}
	return (*T)(unsafe.Pointer(&cell[0])), true
}

// SetComponent copies comp into e's storage for T, adding T first if
// absent.
func SetComponent[T any](w *World, e Entity, comp T) bool {
	id, ok := TryGetID[T]()
	if !ok {
		return false
	}
	return SetComponentRaw(w, e, id, unsafe.Slice((*byte)(unsafe.Pointer(&comp)), sizeOf(id)))
}

// GetComponent returns a pointer to e's value of T, or ok == false if e
// does not carry it. Same invalidation caveat as AddComponent.
func GetComponent[T any](w *World, e Entity) (*T, bool) {
	id, ok := TryGetID[T]()
	if !ok {
		return nil, false
	}
	cell, ok := GetComponentRaw(w, e, id)
	if !ok {
		return nil, false
	}
	return (*T)(unsafe.Pointer(&cell[0])), true
}

// RemoveComponent detaches T from e. Removing an absent component is a
// no-op.
func RemoveComponent[T any](w *World, e Entity) bool {
	id, ok := TryGetID[T]()
	if !ok {
		return false
	}
	return RemoveComponentRaw(w, e, id)
}
