// Package registry is the component type catalog binding compile-time
// component types to runtime descriptors: identity, layout, clone,
// serialize, deserialize, structural diff, patch application, default
// construction, and removal, each hidden behind closures captured at
// registration time by ComponentDescriptorOf's generic type parameter.
//
// There is no package-level singleton and no init-time collection magic:
// callers construct a Registry explicitly at startup and call Register
// for each component type. The registry is read-only afterwards and may
// be shared freely across goroutines.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unsafe"

	jsonpatch "gopkg.in/evanphx/json-patch.v4"

	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
)

// asPointer reinterprets a component's raw byte-column storage as *T.
// The byte slice always originates from the ecs package's columns, which
// are sized for exactly one T per cell, so this is the same raw-pointer
// cast ecs's generic AddComponent[T]/GetComponent[T] perform, just
// reached through the erased ComponentID path instead of a compile-time
// type parameter.
func asPointer(raw []byte) unsafe.Pointer {
	return unsafe.Pointer(&raw[0])
}

// DiffOutcome classifies the result of comparing a component between two
// entities, one of which may be absent.
type DiffOutcome int

const (
	// NoChange means both sides carry the component with equal values.
	NoChange DiffOutcome = iota
	// Changed means both sides carry the component with different values;
	// the payload is a structural patch.
	Changed
	// Added means only the destination side carries the component; the
	// payload is the full serialized value.
	Added
	// Removed means only the source side carries the component; the
	// payload is empty.
	Removed
)

func (o DiffOutcome) String() string {
	switch o {
	case NoChange:
		return "NoChange"
	case Changed:
		return "Changed"
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	default:
		return "unknown"
	}
}

// Component is the constraint ComponentDescriptorOf requires of T. Go has
// no compile-time serializability trait, so satisfying it is a runtime
// contract: T's encoding/json marshaling must round-trip, and T must be
// safely memcopy-able as a fixed-size value, exactly as
// ecs.RegisterComponent[T] already assumes via unsafe.Sizeof.
type Component interface {
	any
}

// Layout accumulates component types for a new archetype before it is
// created, mirroring the Rust source's EntityLayout builder
// (ComponentDescriptor.register_into_layout).
type Layout struct {
	ids []ecs.ComponentID
}

// NewLayout returns an empty layout.
func NewLayout() *Layout { return &Layout{} }

// Add appends a component type to the layout.
func (l *Layout) Add(id ecs.ComponentID) { l.ids = append(l.ids, id) }

// Mask returns the archetype mask this layout describes.
func (l *Layout) Mask() ecs.Mask { return ecs.MakeMask(l.ids) }

// Descriptor is the erased per-component-type record: a runtime vtable
// hiding the compile-time type T behind closures captured when
// ComponentDescriptorOf[T] built it.
type Descriptor struct {
	TypeUUID      ids.ComponentTypeID
	RuntimeTypeID ecs.ComponentID
	TypeName      string

	registerIntoLayout func(*Layout)
	serializeOne       func(w *ecs.World, e ecs.Entity) ([]byte, error)
	deserializeOne     func(w *ecs.World, e ecs.Entity, data []byte) error
	addDefault         func(w *ecs.World, e ecs.Entity) error
	remove             func(w *ecs.World, e ecs.Entity) error
	cloneOne           func(src *ecs.World, srcE ecs.Entity, dst *ecs.World, dstE ecs.Entity) error
	diffOne            func(srcWorld *ecs.World, srcE *ecs.Entity, dstWorld *ecs.World, dstE *ecs.Entity) (DiffOutcome, []byte, error)
	applyDiff          func(w *ecs.World, e ecs.Entity, patch []byte) error
}

// RegisterIntoLayout appends this component to a new archetype layout.
func (d *Descriptor) RegisterIntoLayout(l *Layout) { d.registerIntoLayout(l) }

// SerializeOne encodes the component value e carries to its native JSON
// representation.
func (d *Descriptor) SerializeOne(w *ecs.World, e ecs.Entity) ([]byte, error) {
	return d.serializeOne(w, e)
}

// DeserializeOne decodes data and attaches it to e, adding the component
// if absent.
func (d *Descriptor) DeserializeOne(w *ecs.World, e ecs.Entity, data []byte) error {
	return d.deserializeOne(w, e, data)
}

// AddDefault attaches the zero value of T to e.
func (d *Descriptor) AddDefault(w *ecs.World, e ecs.Entity) error { return d.addDefault(w, e) }

// Remove detaches the component from e.
func (d *Descriptor) Remove(w *ecs.World, e ecs.Entity) error { return d.remove(w, e) }

// CloneOne raw-copies the component value from srcE in src to dstE in dst.
// Both worlds must carry a component with this descriptor's RuntimeTypeID
// already registered; the caller (CloneMerge) guarantees the type match.
func (d *Descriptor) CloneOne(src *ecs.World, srcE ecs.Entity, dst *ecs.World, dstE ecs.Entity) error {
	return d.cloneOne(src, srcE, dst, dstE)
}

// DiffOne compares the component across two (world, entity) pairs, either
// of which may be nil to mean "entity does not exist on this side". It
// returns the outcome and, for Changed/Added, the serialized payload a
// WorldDiff should carry (a structural patch for Changed, a full value
// for Added).
func (d *Descriptor) DiffOne(srcWorld *ecs.World, srcE *ecs.Entity, dstWorld *ecs.World, dstE *ecs.Entity) (DiffOutcome, []byte, error) {
	return d.diffOne(srcWorld, srcE, dstWorld, dstE)
}

// ApplyDiff decodes a structural patch produced by DiffOne's Changed
// outcome and applies it against e's current value in place.
func (d *Descriptor) ApplyDiff(w *ecs.World, e ecs.Entity, patch []byte) error {
	return d.applyDiff(w, e, patch)
}

// ComponentDescriptorOf builds a Descriptor for T. typeUUID is the
// component's stable cross-document identity; runtimeID is the ecs
// package's process-local
// type key, normally obtained by calling ecs.RegisterComponent[T]() once
// at startup (see RegisterComponent, below, which does both in one call).
func ComponentDescriptorOf[T Component](typeUUID ids.ComponentTypeID, runtimeID ecs.ComponentID) *Descriptor {
	var zero T
	typeName := fmt.Sprintf("%T", zero)

	get := func(w *ecs.World, e ecs.Entity) (*T, bool) {
		raw, ok := ecs.GetComponentRaw(w, e, runtimeID)
		if !ok {
			return nil, false
		}
		return (*T)(asPointer(raw)), true
	}

	d := &Descriptor{
		TypeUUID:      typeUUID,
		RuntimeTypeID: runtimeID,
		TypeName:      typeName,
	}

	d.registerIntoLayout = func(l *Layout) { l.Add(runtimeID) }

	d.serializeOne = func(w *ecs.World, e ecs.Entity) ([]byte, error) {
		v, ok := get(w, e)
		if !ok {
			return nil, fmt.Errorf("registry: entity does not carry component %s", typeName)
		}
		return json.Marshal(v)
	}

	d.deserializeOne = func(w *ecs.World, e ecs.Entity, data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("registry: decode %s: %w", typeName, err)
		}
		raw, ok := ecs.AddComponentRaw(w, e, runtimeID)
		if !ok {
			return fmt.Errorf("registry: entity is not alive")
		}
		*(*T)(asPointer(raw)) = v
		return nil
	}

	d.addDefault = func(w *ecs.World, e ecs.Entity) error {
		if _, ok := ecs.AddComponentRaw(w, e, runtimeID); !ok {
			return fmt.Errorf("registry: entity is not alive")
		}
		return nil
	}

	d.remove = func(w *ecs.World, e ecs.Entity) error {
		if !ecs.RemoveComponentRaw(w, e, runtimeID) {
			return fmt.Errorf("registry: entity is not alive")
		}
		return nil
	}

	d.cloneOne = func(src *ecs.World, srcE ecs.Entity, dst *ecs.World, dstE ecs.Entity) error {
		raw, ok := ecs.GetComponentRaw(src, srcE, runtimeID)
		if !ok {
			return fmt.Errorf("registry: source entity does not carry component %s", typeName)
		}
		if !ecs.SetComponentRaw(dst, dstE, runtimeID, raw) {
			return fmt.Errorf("registry: destination entity is not alive")
		}
		return nil
	}

	d.diffOne = func(srcWorld *ecs.World, srcE *ecs.Entity, dstWorld *ecs.World, dstE *ecs.Entity) (DiffOutcome, []byte, error) {
		var before, after []byte
		var err error
		if srcE != nil {
			before, err = d.serializeOne(srcWorld, *srcE)
			if err != nil {
				before = nil
			}
		}
		if dstE != nil {
			after, err = d.serializeOne(dstWorld, *dstE)
			if err != nil {
				after = nil
			}
		}
		switch {
		case before == nil && after == nil:
			return NoChange, nil, nil
		case before == nil:
			return Added, after, nil
		case after == nil:
			return Removed, nil, nil
		case bytes.Equal(before, after):
			return NoChange, nil, nil
		default:
			patch, err := jsonpatch.CreateMergePatch(before, after)
			if err != nil {
				return Changed, nil, fmt.Errorf("registry: diff %s: %w", typeName, err)
			}
			return Changed, patch, nil
		}
	}

	d.applyDiff = func(w *ecs.World, e ecs.Entity, patch []byte) error {
		current, err := d.serializeOne(w, e)
		if err != nil {
			return err
		}
		merged, err := jsonpatch.MergePatch(current, patch)
		if err != nil {
			return fmt.Errorf("registry: apply patch to %s: %w", typeName, err)
		}
		return d.deserializeOne(w, e, merged)
	}

	return d
}

// Registry is the process-wide, explicitly constructed set of descriptors,
// indexed by both ComponentTypeID and the ecs package's runtime
// ComponentID. Read-only after startup.
type Registry struct {
	byUUID    map[ids.ComponentTypeID]*Descriptor
	byRuntime map[ecs.ComponentID]*Descriptor
	ordered   []*Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUUID:    make(map[ids.ComponentTypeID]*Descriptor),
		byRuntime: make(map[ecs.ComponentID]*Descriptor),
	}
}

// Register deposits d into the registry, indexed both ways. Registration
// order is preserved for IterDescriptors: the cooking and transaction
// pipelines iterate descriptors in that order, which keeps cooking
// deterministic and diff coverage stable for a fixed registration
// sequence.
func (r *Registry) Register(d *Descriptor) {
	r.byUUID[d.TypeUUID] = d
	r.byRuntime[d.RuntimeTypeID] = d
	r.ordered = append(r.ordered, d)
}

// RegisterComponent registers component type T with the ecs package's
// global type table and builds+registers its Descriptor in one call, the
// common case for application startup.
func RegisterComponent[T Component](r *Registry, typeUUID ids.ComponentTypeID) *Descriptor {
	runtimeID := ecs.RegisterComponent[T]()
	d := ComponentDescriptorOf[T](typeUUID, runtimeID)
	r.Register(d)
	return d
}

// ByUUID looks up a descriptor by its stable cross-document type id.
func (r *Registry) ByUUID(id ids.ComponentTypeID) (*Descriptor, bool) {
	d, ok := r.byUUID[id]
	return d, ok
}

// ByRuntime looks up a descriptor by the ecs package's runtime type key.
func (r *Registry) ByRuntime(id ecs.ComponentID) (*Descriptor, bool) {
	d, ok := r.byRuntime[id]
	return d, ok
}

// IterDescriptors returns every registered descriptor in registration
// order. The returned slice is a copy; mutating it does not affect the
// registry.
func (r *Registry) IterDescriptors() []*Descriptor {
	out := make([]*Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}
