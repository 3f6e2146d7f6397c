package format

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/prefabmodel"
	"github.com/edwinsyarief/prefab/pkg/registry"
)

// ErrProtocolViolation is returned when a Reader event arrives out of
// the traversal sequence: BeginPrefab, then any interleaving of
// (BeginEntity, DeserializeComponent*, EndEntity) and (BeginPrefabRef,
// ApplyComponentOverride*, EndPrefabRef), then EndPrefab.
var ErrProtocolViolation = errors.New("format: reader event out of sequence")

// ErrComponentNotRegistered is returned by DeserializeComponent when the
// incoming component type id has no Descriptor in the Reader's registry.
// Unknown types are fatal on read (the document is unusable in this
// binary), unlike the emitter side, which tolerates them.
var ErrComponentNotRegistered = errors.New("format: component type not registered")

type readerState int

const (
	stateInit readerState = iota
	stateInPrefab
	stateInEntity
	stateInRef
	stateDone
)

// Reader is the event-sink state machine a document walk drives by
// calling its methods in protocol order; Reader populates a
// prefabmodel.Model as it goes.
type Reader struct {
	Registry *registry.Registry

	model        *prefabmodel.Model
	state        readerState
	curEntity    ids.EntityID
	curRefTarget ids.PrefabID
}

// NewReader returns a Reader in its initial state, resolving component
// types against reg.
func NewReader(reg *registry.Registry) *Reader {
	return &Reader{Registry: reg, state: stateInit}
}

// Model returns the prefab populated so far. It is non-nil only after
// BeginPrefab has been called at least once.
func (r *Reader) Model() *prefabmodel.Model { return r.model }

func (r *Reader) checkPrefab(id ids.PrefabID) error {
	if r.model == nil || r.model.ID != id {
		return fmt.Errorf("format: event for unbegun prefab %s: %w", id, ErrProtocolViolation)
	}
	return nil
}

// BeginPrefab starts (or, if id matches the prefab already begun,
// no-ops on) a new prefab document.
func (r *Reader) BeginPrefab(id ids.PrefabID) error {
	switch r.state {
	case stateInit:
		r.model = prefabmodel.New(id)
		r.state = stateInPrefab
		return nil
	case stateInPrefab:
		return r.checkPrefab(id)
	default:
		return fmt.Errorf("format: begin_prefab while in state %d: %w", r.state, ErrProtocolViolation)
	}
}

// BeginEntity opens a new entity under prefabID, binding entityID to a
// freshly created world entity.
func (r *Reader) BeginEntity(prefabID ids.PrefabID, entityID ids.EntityID) error {
	if r.state != stateInPrefab {
		return fmt.Errorf("format: begin_entity while in state %d: %w", r.state, ErrProtocolViolation)
	}
	if err := r.checkPrefab(prefabID); err != nil {
		return err
	}
	e := r.model.World.CreateEntity()
	r.model.Entities.Bind(entityID, e)
	r.curEntity = entityID
	r.state = stateInEntity
	return nil
}

// DeserializeComponent decodes data as typeID's native representation and
// attaches it to entityID. Returns ErrComponentNotRegistered if typeID is
// unknown to the Reader's registry.
func (r *Reader) DeserializeComponent(prefabID ids.PrefabID, entityID ids.EntityID, typeID ids.ComponentTypeID, data json.RawMessage) error {
	if r.state != stateInEntity || entityID != r.curEntity {
		return fmt.Errorf("format: deserialize_component while in state %d: %w", r.state, ErrProtocolViolation)
	}
	if err := r.checkPrefab(prefabID); err != nil {
		return err
	}
	d, ok := r.Registry.ByUUID(typeID)
	if !ok {
		return fmt.Errorf("format: component type %s on entity %s: %w", typeID, entityID, ErrComponentNotRegistered)
	}
	e, _ := r.model.Entities.ByID(entityID)
	if err := d.DeserializeOne(r.model.World, e, data); err != nil {
		return fmt.Errorf("format: decode %s on %s: %w", d.TypeName, entityID, err)
	}
	return nil
}

// EndEntity closes the entity opened by BeginEntity.
func (r *Reader) EndEntity(prefabID ids.PrefabID, entityID ids.EntityID) error {
	if r.state != stateInEntity || entityID != r.curEntity {
		return fmt.Errorf("format: end_entity while in state %d: %w", r.state, ErrProtocolViolation)
	}
	if err := r.checkPrefab(prefabID); err != nil {
		return err
	}
	r.state = stateInPrefab
	return nil
}

// BeginPrefabRef opens a reference to targetID, ensuring a PrefabRef
// record exists with empty overrides.
func (r *Reader) BeginPrefabRef(prefabID, targetID ids.PrefabID) error {
	if r.state != stateInPrefab {
		return fmt.Errorf("format: begin_prefab_ref while in state %d: %w", r.state, ErrProtocolViolation)
	}
	if err := r.checkPrefab(prefabID); err != nil {
		return err
	}
	r.model.RefFor(targetID)
	r.curRefTarget = targetID
	r.state = stateInRef
	return nil
}

// ApplyComponentOverride records a structural patch against entityID's
// typeID component within the ref opened by BeginPrefabRef. The patch is
// captured as opaque bytes; it is neither decoded nor type-checked until
// cooking applies it.
func (r *Reader) ApplyComponentOverride(prefabID, targetID ids.PrefabID, entityID ids.EntityID, typeID ids.ComponentTypeID, patch json.RawMessage) error {
	if r.state != stateInRef || targetID != r.curRefTarget {
		return fmt.Errorf("format: apply_component_override while in state %d: %w", r.state, ErrProtocolViolation)
	}
	if err := r.checkPrefab(prefabID); err != nil {
		return err
	}
	ref := r.model.RefFor(targetID)
	ref.AddOverride(entityID, typeID, append([]byte(nil), patch...))
	return nil
}

// EndPrefabRef closes the reference opened by BeginPrefabRef.
func (r *Reader) EndPrefabRef(prefabID, targetID ids.PrefabID) error {
	if r.state != stateInRef || targetID != r.curRefTarget {
		return fmt.Errorf("format: end_prefab_ref while in state %d: %w", r.state, ErrProtocolViolation)
	}
	if err := r.checkPrefab(prefabID); err != nil {
		return err
	}
	r.state = stateInPrefab
	return nil
}

// EndPrefab closes the document, after which the Reader accepts no
// further events.
func (r *Reader) EndPrefab(id ids.PrefabID) error {
	if r.state != stateInPrefab {
		return fmt.Errorf("format: end_prefab while in state %d: %w", r.state, ErrProtocolViolation)
	}
	if err := r.checkPrefab(id); err != nil {
		return err
	}
	r.state = stateDone
	return nil
}

// ReadDocument walks doc and drives a Reader through it in protocol
// order. It returns the populated prefab model, or the first error the
// Reader's state machine rejects.
func ReadDocument(doc *Document, reg *registry.Registry) (*prefabmodel.Model, error) {
	r := NewReader(reg)
	if err := r.BeginPrefab(doc.ID); err != nil {
		return nil, err
	}
	for _, obj := range doc.Objects {
		switch {
		case obj.Entity != nil:
			ent := obj.Entity
			if err := r.BeginEntity(doc.ID, ent.ID); err != nil {
				return nil, err
			}
			for _, c := range ent.Components {
				if err := r.DeserializeComponent(doc.ID, ent.ID, c.Type, c.Data); err != nil {
					return nil, err
				}
			}
			if err := r.EndEntity(doc.ID, ent.ID); err != nil {
				return nil, err
			}
		case obj.PrefabRef != nil:
			ref := obj.PrefabRef
			if err := r.BeginPrefabRef(doc.ID, ref.PrefabID); err != nil {
				return nil, err
			}
			for _, eo := range ref.EntityOverrides {
				for _, co := range eo.ComponentOverrides {
					if err := r.ApplyComponentOverride(doc.ID, ref.PrefabID, eo.EntityID, co.ComponentType, co.Diff); err != nil {
						return nil, err
					}
				}
			}
			if err := r.EndPrefabRef(doc.ID, ref.PrefabID); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("format: object has neither entity nor prefab_ref")
		}
	}
	if err := r.EndPrefab(doc.ID); err != nil {
		return nil, err
	}
	return r.Model(), nil
}
