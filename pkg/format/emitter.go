package format

import (
	"encoding/json"
	"fmt"

	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/prefabmodel"
	"github.com/edwinsyarief/prefab/pkg/registry"
)

// EntityOverrideTypes pairs one overridden entity with the component
// types it carries overrides for.
type EntityOverrideTypes struct {
	EntityID ids.EntityID
	Types    []ids.ComponentTypeID
}

// Emitter is the query surface a serializer pulls a prefab's content
// through: entities, component types per entity, per-(entity, type)
// serialized values, referenced prefabs, and their per-entity override
// lists. Unknown component types are skipped rather than erroring,
// unlike the reader side.
type Emitter struct {
	Registry *registry.Registry
	Model    *prefabmodel.Model

	serializer *EntitySerializer
}

// NewEmitter returns an emitter over model, resolving component payloads
// against reg.
func NewEmitter(reg *registry.Registry, model *prefabmodel.Model) *Emitter {
	return &Emitter{Registry: reg, Model: model, serializer: NewEntitySerializer(model.Entities)}
}

// Serializer exposes the EntitySerializer backing this emission, for
// components whose own MarshalJSON needs to resolve entity-valued
// fields through the same EntityId<->handle map.
func (em *Emitter) Serializer() *EntitySerializer { return em.serializer }

// Entities returns every EntityID in the prefab, order unspecified but
// stable within one emission.
func (em *Emitter) Entities() []ids.EntityID {
	return em.Model.Entities.IDs()
}

// ComponentTypes returns the registered component type ids entityID
// carries. A component present in the world but absent from the
// registry (unknown to this process) is skipped.
func (em *Emitter) ComponentTypes(entityID ids.EntityID) []ids.ComponentTypeID {
	e, ok := em.Model.Entities.ByID(entityID)
	if !ok {
		return nil
	}
	present := em.Model.World.ComponentTypesOf(e)
	out := make([]ids.ComponentTypeID, 0, len(present))
	for _, rid := range present {
		if d, ok := em.Registry.ByRuntime(rid); ok {
			out = append(out, d.TypeUUID)
		}
	}
	return out
}

// SerializeComponent encodes entityID's typeID component to its native
// JSON representation.
func (em *Emitter) SerializeComponent(entityID ids.EntityID, typeID ids.ComponentTypeID) (json.RawMessage, error) {
	e, ok := em.Model.Entities.ByID(entityID)
	if !ok {
		return nil, fmt.Errorf("format: entity %s not in prefab", entityID)
	}
	d, ok := em.Registry.ByUUID(typeID)
	if !ok {
		return nil, fmt.Errorf("format: component type %s not registered: %w", typeID, ErrComponentNotRegistered)
	}
	data, err := d.SerializeOne(em.Model.World, e)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// PrefabRefs returns the ids of every prefab this one references.
func (em *Emitter) PrefabRefs() []ids.PrefabID {
	out := make([]ids.PrefabID, 0, len(em.Model.PrefabRefs))
	for id := range em.Model.PrefabRefs {
		out = append(out, id)
	}
	return out
}

// PrefabRefOverrides returns, for a referenced prefab, every overridden
// entity and the component types it carries overrides for.
func (em *Emitter) PrefabRefOverrides(prefabID ids.PrefabID) []EntityOverrideTypes {
	ref, ok := em.Model.PrefabRefs[prefabID]
	if !ok {
		return nil
	}
	out := make([]EntityOverrideTypes, 0, len(ref.Overrides))
	for entityID, overrides := range ref.Overrides {
		types := make([]ids.ComponentTypeID, len(overrides))
		for i, o := range overrides {
			types[i] = o.Type
		}
		out = append(out, EntityOverrideTypes{EntityID: entityID, Types: types})
	}
	return out
}

// SerializeOverride returns the raw patch bytes recorded for
// (entityID, typeID) under prefabID's ref.
func (em *Emitter) SerializeOverride(prefabID ids.PrefabID, entityID ids.EntityID, typeID ids.ComponentTypeID) (json.RawMessage, error) {
	ref, ok := em.Model.PrefabRefs[prefabID]
	if !ok {
		return nil, fmt.Errorf("format: prefab ref %s not found", prefabID)
	}
	for _, o := range ref.Overrides[entityID] {
		if o.Type == typeID {
			return json.RawMessage(o.Patch), nil
		}
	}
	return nil, fmt.Errorf("format: override for %s/%s not found", entityID, typeID)
}

// EmitDocument walks em's query surface and builds a Document. Marshal
// the result to produce native-format text.
func EmitDocument(em *Emitter) (*Document, error) {
	doc := &Document{ID: em.Model.ID}

	for _, entityID := range em.Entities() {
		ed := EntityDoc{ID: entityID}
		for _, typeID := range em.ComponentTypes(entityID) {
			data, err := em.SerializeComponent(entityID, typeID)
			if err != nil {
				return nil, err
			}
			ed.Components = append(ed.Components, ComponentEntry{Type: typeID, Data: data})
		}
		doc.Objects = append(doc.Objects, ObjectDoc{Entity: &ed})
	}

	for _, prefabID := range em.PrefabRefs() {
		rd := PrefabRefDoc{PrefabID: prefabID}
		for _, et := range em.PrefabRefOverrides(prefabID) {
			eo := EntityOverride{EntityID: et.EntityID}
			for _, typeID := range et.Types {
				patch, err := em.SerializeOverride(prefabID, et.EntityID, typeID)
				if err != nil {
					return nil, err
				}
				eo.ComponentOverrides = append(eo.ComponentOverrides, OverrideEntry{ComponentType: typeID, Diff: patch})
			}
			rd.EntityOverrides = append(rd.EntityOverrides, eo)
		}
		doc.Objects = append(doc.Objects, ObjectDoc{PrefabRef: &rd})
	}

	return doc, nil
}
