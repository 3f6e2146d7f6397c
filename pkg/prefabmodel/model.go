// Package prefabmodel is the in-memory representation of one uncooked
// prefab: an embedded ECS world plus its metadata (the stable prefab id,
// the bidirectional entity-identity map, and references to other prefabs
// carrying per-entity per-component override patches). Cooked is the
// flattened counterpart with every reference resolved.
package prefabmodel

import (
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
)

// EntityMap is the bidirectional EntityID <-> ecs.Entity map every Model
// and Cooked carries. Invariant: every externally visible entity handle
// in the world is keyed, and the inverse holds.
type EntityMap struct {
	byID     map[ids.EntityID]ecs.Entity
	byEntity map[ecs.Entity]ids.EntityID
}

// NewEntityMap returns an empty bidirectional map.
func NewEntityMap() *EntityMap {
	return &EntityMap{
		byID:     make(map[ids.EntityID]ecs.Entity),
		byEntity: make(map[ecs.Entity]ids.EntityID),
	}
}

// Bind records id <-> e in both directions, overwriting any prior binding
// for either side.
func (m *EntityMap) Bind(id ids.EntityID, e ecs.Entity) {
	if old, ok := m.byID[id]; ok {
		delete(m.byEntity, old)
	}
	if old, ok := m.byEntity[e]; ok {
		delete(m.byID, old)
	}
	m.byID[id] = e
	m.byEntity[e] = id
}

// Unbind removes id and its bound entity from both directions.
func (m *EntityMap) Unbind(id ids.EntityID) {
	if e, ok := m.byID[id]; ok {
		delete(m.byEntity, e)
		delete(m.byID, id)
	}
}

// ByID returns the entity handle bound to id.
func (m *EntityMap) ByID(id ids.EntityID) (ecs.Entity, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// ByEntity returns the EntityID bound to e.
func (m *EntityMap) ByEntity(e ecs.Entity) (ids.EntityID, bool) {
	id, ok := m.byEntity[e]
	return id, ok
}

// Len returns the number of bound pairs.
func (m *EntityMap) Len() int { return len(m.byID) }

// IDs returns every bound EntityID, order unspecified.
func (m *EntityMap) IDs() []ids.EntityID {
	out := make([]ids.EntityID, 0, len(m.byID))
	for id := range m.byID {
		out = append(out, id)
	}
	return out
}

// ComponentOverride is one (type, patch) pair recorded under a Ref's
// overrides. Patch is captured as opaque text at read time so re-emission
// is byte-stable even when the target component's type is unregistered in
// this process; it is decoded and type-checked only when cooking applies
// it.
type ComponentOverride struct {
	Type  ids.ComponentTypeID
	Patch []byte
}

// Ref records the overrides one prefab applies to entities of another
// prefab it embeds. Every EntityID appearing in Overrides must resolve to
// an entity in the transitive closure of the referenced prefab; this is
// enforced by cooking.Cook at apply time, not by Ref itself.
type Ref struct {
	PrefabID  ids.PrefabID
	Overrides map[ids.EntityID][]ComponentOverride
}

// NewRef returns an empty PrefabRef targeting id.
func NewRef(id ids.PrefabID) *Ref {
	return &Ref{PrefabID: id, Overrides: make(map[ids.EntityID][]ComponentOverride)}
}

// AddOverride appends one override to entityID's list. Recording order is
// preserved; cooking applies each entity's overrides in exactly this
// order.
func (r *Ref) AddOverride(entityID ids.EntityID, typeID ids.ComponentTypeID, patch []byte) {
	r.Overrides[entityID] = append(r.Overrides[entityID], ComponentOverride{Type: typeID, Patch: patch})
}

// Model is an uncooked prefab: its own small world, the bidirectional
// entity identity map, and the set of other prefabs it references.
type Model struct {
	ID         ids.PrefabID
	World      *ecs.World
	Entities   *EntityMap
	PrefabRefs map[ids.PrefabID]*Ref
}

// New returns an empty prefab with a fresh world, identified by id.
func New(id ids.PrefabID) *Model {
	return &Model{
		ID:         id,
		World:      ecs.NewWorld(),
		Entities:   NewEntityMap(),
		PrefabRefs: make(map[ids.PrefabID]*Ref),
	}
}

// NewFromWorld wraps an existing world in a freshly-identified prefab,
// synthesizing a new EntityID for every entity currently alive in it.
func NewFromWorld(world *ecs.World) *Model {
	m := &Model{
		ID:         ids.NewPrefabID(),
		World:      world,
		Entities:   NewEntityMap(),
		PrefabRefs: make(map[ids.PrefabID]*Ref),
	}
	for _, e := range world.AllEntities() {
		m.Entities.Bind(ids.NewEntityID(), e)
	}
	return m
}

// RefFor returns the Ref targeting targetID, creating one with empty
// overrides on first use.
func (m *Model) RefFor(targetID ids.PrefabID) *Ref {
	r, ok := m.PrefabRefs[targetID]
	if !ok {
		r = NewRef(targetID)
		m.PrefabRefs[targetID] = r
	}
	return r
}

// Cooked is a prefab with all references resolved into a single flat
// world. It has no PrefabRefs: every override has already been
// materialized by cooking.Cook.
type Cooked struct {
	World    *ecs.World
	Entities *EntityMap
}
