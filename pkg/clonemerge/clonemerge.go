// Package clonemerge provides the policy objects that drive the ecs
// package's cross-world clone. Copy is the identity policy: every
// registered component type is raw-cloned unchanged into an identical
// target archetype. Mapped extends it with per-source-type handlers that
// can redirect specific types through a value conversion, a slice-level
// spawner, or a fully custom closure, and with an optional entity remap
// supplying pre-allocated destination handles.
package clonemerge

import (
	"fmt"
	"unsafe"

	"github.com/edwinsyarief/prefab/pkg/cprint"
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/registry"
)

// Copy clones every component type known to the registry and present on a
// source archetype unchanged into the destination world, via the registry
// descriptor's raw clone. Component types absent from the registry are
// dropped with a diagnostic.
type Copy struct {
	Registry *registry.Registry
}

// NewCopy builds a Copy merger over reg.
func NewCopy(reg *registry.Registry) *Copy { return &Copy{Registry: reg} }

// PrefersNewArchetype never requests a fresh archetype; Copy reuses
// whatever archetype the destination world already has for a layout.
func (c *Copy) PrefersNewArchetype() bool { return false }

// TranslateLayout keeps only the component types the registry knows
// about; this is where an unregistered source column is left out of the
// destination layout (MergeArchetypeSlice reports the drop).
func (c *Copy) TranslateLayout(src ecs.Mask) ecs.Mask {
	var ids []ecs.ComponentID
	for _, d := range c.Registry.IterDescriptors() {
		if src.Has(d.RuntimeTypeID) {
			ids = append(ids, d.RuntimeTypeID)
		}
	}
	return ecs.MakeMask(ids)
}

// AssignID always allocates a fresh destination entity handle.
func (c *Copy) AssignID(_ ecs.Entity, alloc *ecs.EntityAllocator) ecs.Entity {
	return alloc.Allocate()
}

// MergeArchetypeSlice clones every registered component type row by row
// through the descriptor's CloneOne.
func (c *Copy) MergeArchetypeSlice(srcWorld *ecs.World, srcArch *ecs.Archetype, srcStart, count int, dstWorld *ecs.World, dstArch *ecs.Archetype, dstStart int) error {
	srcEntities := srcArch.Entities()
	dstEntities := dstArch.Entities()
	for _, id := range srcArch.ComponentIDs() {
		d, ok := c.Registry.ByRuntime(id)
		if !ok {
			cprint.WarnPrintf("clonemerge: dropping unregistered component type %d during clone\n", id)
			continue
		}
		for i := 0; i < count; i++ {
			se := srcEntities[srcStart+i]
			de := dstEntities[dstStart+i]
			if err := d.CloneOne(srcWorld, se, dstWorld, de); err != nil {
				return fmt.Errorf("clonemerge: clone %s: %w", d.TypeName, err)
			}
		}
	}
	return nil
}

// handler is the erased per-source-type clone function a HandlerSet
// dispatches to, keyed by the source runtime type id. It receives the
// placed destination entities directly (the clone has already assigned
// and placed them before MergeArchetypeSlice runs) and is responsible for
// reading the source column and
// writing the destination column.
type handler struct {
	targetRuntimeID ecs.ComponentID
	clone           func(srcWorld *ecs.World, srcEntities []ecs.Entity, dstWorld *ecs.World, dstEntities []ecs.Entity) error
}

// HandlerSet holds per-source-component-type mapping handlers for Mapped,
// plus the ambient resource table handed to spawners and closures. Zero
// value is ready to use.
type HandlerSet struct {
	Resources *ecs.Resources
	handlers  map[ecs.ComponentID]handler
}

func (hs *HandlerSet) ensure() {
	if hs.handlers == nil {
		hs.handlers = make(map[ecs.ComponentID]handler)
	}
}

func rawBytesOf[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// AddMappingInto registers an element-wise handler: target type I is
// produced from source type F one value at a time by convert.
func AddMappingInto[F, I any](hs *HandlerSet, srcID, dstID ecs.ComponentID, convert func(F) I) {
	hs.ensure()
	hs.handlers[srcID] = handler{
		targetRuntimeID: dstID,
		clone: func(srcWorld *ecs.World, srcEntities []ecs.Entity, dstWorld *ecs.World, dstEntities []ecs.Entity) error {
			for i, se := range srcEntities {
				raw, ok := ecs.GetComponentRaw(srcWorld, se, srcID)
				if !ok {
					continue
				}
				var fv F
				copy(rawBytesOf(&fv), raw)
				iv := convert(fv)
				if !ecs.SetComponentRaw(dstWorld, dstEntities[i], dstID, rawBytesOf(&iv)) {
					return fmt.Errorf("clonemerge: identity-into: destination entity is not alive")
				}
			}
			return nil
		},
	}
}

// Spawner produces target values of type I from the whole source slice
// plus the handler set's ambient resources in one call.
type Spawner[F, I any] interface {
	SpawnFrom(resources *ecs.Resources, elems []F) []I
}

// AddMapping registers a Spawner-driven handler.
func AddMapping[F, I any, S Spawner[F, I]](hs *HandlerSet, srcID, dstID ecs.ComponentID, spawner S) {
	hs.ensure()
	hs.handlers[srcID] = handler{
		targetRuntimeID: dstID,
		clone: func(srcWorld *ecs.World, srcEntities []ecs.Entity, dstWorld *ecs.World, dstEntities []ecs.Entity) error {
			elems := make([]F, 0, len(srcEntities))
			present := make([]int, 0, len(srcEntities))
			for i, se := range srcEntities {
				raw, ok := ecs.GetComponentRaw(srcWorld, se, srcID)
				if !ok {
					continue
				}
				var fv F
				copy(rawBytesOf(&fv), raw)
				elems = append(elems, fv)
				present = append(present, i)
			}
			out := spawner.SpawnFrom(hs.Resources, elems)
			if len(out) != len(present) {
				return fmt.Errorf("clonemerge: spawner returned %d values for %d inputs", len(out), len(present))
			}
			for k, i := range present {
				iv := out[k]
				if !ecs.SetComponentRaw(dstWorld, dstEntities[i], dstID, rawBytesOf(&iv)) {
					return fmt.Errorf("clonemerge: spawn: destination entity is not alive")
				}
			}
			return nil
		},
	}
}

// ClosureFunc is the fully custom registration mode: the caller is handed
// everything (resources, the source slice, and the destination entities)
// and decides how to populate the destination column itself.
type ClosureFunc func(resources *ecs.Resources, srcWorld *ecs.World, srcEntities []ecs.Entity, dstWorld *ecs.World, dstEntities []ecs.Entity) error

// AddMappingClosure registers a fully custom handler.
func AddMappingClosure(hs *HandlerSet, srcID, dstID ecs.ComponentID, fn ClosureFunc) {
	hs.ensure()
	hs.handlers[srcID] = handler{
		targetRuntimeID: dstID,
		clone: func(srcWorld *ecs.World, srcEntities []ecs.Entity, dstWorld *ecs.World, dstEntities []ecs.Entity) error {
			return fn(hs.Resources, srcWorld, srcEntities, dstWorld, dstEntities)
		},
	}
}

// Mapped is the mapping clone policy: component types with a registered
// handler are transformed through it; every other registered type falls
// through to Copy's identity behavior.
type Mapped struct {
	Registry    *registry.Registry
	Handlers    *HandlerSet
	EntityRemap map[ecs.Entity]ecs.Entity
}

// NewMapped builds a Mapped merger over reg and hs. remap, if non-nil,
// supplies pre-allocated destination handles for specific source
// entities; entities absent from remap get a fresh handle exactly like
// Copy.
func NewMapped(reg *registry.Registry, hs *HandlerSet, remap map[ecs.Entity]ecs.Entity) *Mapped {
	return &Mapped{Registry: reg, Handlers: hs, EntityRemap: remap}
}

// PrefersNewArchetype never requests a fresh archetype.
func (m *Mapped) PrefersNewArchetype() bool { return false }

// TranslateLayout maps each source component type to its handler's target
// type if one is registered, else keeps the type as-is if the registry
// knows it, else drops it.
func (m *Mapped) TranslateLayout(src ecs.Mask) ecs.Mask {
	var ids []ecs.ComponentID
	seen := make(map[ecs.ComponentID]bool)
	add := func(id ecs.ComponentID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if m.Handlers != nil {
		for srcID, h := range m.Handlers.handlers {
			if src.Has(srcID) {
				add(h.targetRuntimeID)
			}
		}
	}
	for _, d := range m.Registry.IterDescriptors() {
		if !src.Has(d.RuntimeTypeID) {
			continue
		}
		if m.Handlers != nil {
			if _, ok := m.Handlers.handlers[d.RuntimeTypeID]; ok {
				continue
			}
		}
		add(d.RuntimeTypeID)
	}
	return ecs.MakeMask(ids)
}

// AssignID returns the pre-supplied remap target if one exists for
// srcEntity, else allocates a fresh handle.
func (m *Mapped) AssignID(srcEntity ecs.Entity, alloc *ecs.EntityAllocator) ecs.Entity {
	if m.EntityRemap != nil {
		if de, ok := m.EntityRemap[srcEntity]; ok {
			return de
		}
	}
	return alloc.Allocate()
}

// MergeArchetypeSlice dispatches each source component type to its
// handler if one is registered, else to the registry descriptor's
// identity clone.
func (m *Mapped) MergeArchetypeSlice(srcWorld *ecs.World, srcArch *ecs.Archetype, srcStart, count int, dstWorld *ecs.World, dstArch *ecs.Archetype, dstStart int) error {
	srcEntities := srcArch.Entities()[srcStart : srcStart+count]
	dstEntities := dstArch.Entities()[dstStart : dstStart+count]
	for _, id := range srcArch.ComponentIDs() {
		if m.Handlers != nil {
			if h, ok := m.Handlers.handlers[id]; ok {
				if err := h.clone(srcWorld, srcEntities, dstWorld, dstEntities); err != nil {
					return err
				}
				continue
			}
		}
		d, ok := m.Registry.ByRuntime(id)
		if !ok {
			cprint.WarnPrintf("clonemerge: dropping unregistered component type %d during mapped clone\n", id)
			continue
		}
		for i := range srcEntities {
			if err := d.CloneOne(srcWorld, srcEntities[i], dstWorld, dstEntities[i]); err != nil {
				return fmt.Errorf("clonemerge: clone %s: %w", d.TypeName, err)
			}
		}
	}
	return nil
}
