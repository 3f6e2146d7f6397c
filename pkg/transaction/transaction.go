// Package transaction snapshots a named set of entities into a frozen
// before-world and a mutable after-world, then diffs the two at entity
// and component granularity into a symmetric (apply, revert) pair of
// WorldDiffs. Entity handles are per-world, so before and after rows are
// correlated through ids.EntityID rather than raw handles.
package transaction

import (
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/prefabmodel"
	"github.com/edwinsyarief/prefab/pkg/registry"
)

// EntityOp is the kind of change an EntityDiff records.
type EntityOp int

const (
	EntityAdd EntityOp = iota
	EntityRemove
)

// EntityDiff records that an entity was created or removed between
// before and after.
type EntityDiff struct {
	EntityID ids.EntityID
	Op       EntityOp
}

// ComponentOp is the kind of change a ComponentDiff records, mirroring
// registry.DiffOutcome's Changed/Added/Removed (NoChange never appears
// in a WorldDiff: CreateDiffs skips it).
type ComponentOp int

const (
	ComponentChange ComponentOp = iota
	ComponentAdd
	ComponentRemove
)

// ComponentDiff records one component-level change on one entity. Data
// is a structural patch for Change, a full serialized value for Add, and
// empty for Remove.
type ComponentDiff struct {
	EntityID ids.EntityID
	Type     ids.ComponentTypeID
	Op       ComponentOp
	Data     []byte
}

// WorldDiff is an ordered pair of entity-level and component-level
// changes. Entity diffs must be processed before component diffs when
// applying, so a newly-added entity exists before its component Adds
// run.
type WorldDiff struct {
	EntityDiffs    []EntityDiff
	ComponentDiffs []ComponentDiff
}

// HasChanges reports whether the diff carries any entity or component
// change.
func (d *WorldDiff) HasChanges() bool {
	return len(d.EntityDiffs) > 0 || len(d.ComponentDiffs) > 0
}

// Diffs is the (apply, revert) pair CreateDiffs returns.
type Diffs struct {
	Apply  *WorldDiff
	Revert *WorldDiff
}

// Reverse swaps Apply and Revert in place.
func (d *Diffs) Reverse() {
	d.Apply, d.Revert = d.Revert, d.Apply
}

// Builder accumulates the set of entities a Transaction will track.
type Builder struct {
	named []namedEntity
}

type namedEntity struct {
	handle ecs.Entity
	id     ids.EntityID
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// AddEntity names one source-world entity of interest, identified by id.
func (b *Builder) AddEntity(handle ecs.Entity, id ids.EntityID) *Builder {
	b.named = append(b.named, namedEntity{handle: handle, id: id})
	return b
}

// Begin clones every named entity out of srcWorld twice, once into a
// frozen before-world and once into the after-world the caller will
// mutate, under merger's clone policy.
func (b *Builder) Begin(srcWorld *ecs.World, merger ecs.Merger) (*Transaction, error) {
	before := ecs.NewWorld()
	after := ecs.NewWorld()
	beforeEntities := prefabmodel.NewEntityMap()
	afterEntities := prefabmodel.NewEntityMap()

	for _, n := range b.named {
		be, err := before.CloneFromSingle(srcWorld, n.handle, merger)
		if err != nil {
			return nil, err
		}
		beforeEntities.Bind(n.id, be)

		ae, err := after.CloneFromSingle(srcWorld, n.handle, merger)
		if err != nil {
			return nil, err
		}
		afterEntities.Bind(n.id, ae)
	}

	return &Transaction{
		beforeWorld:    before,
		afterWorld:     after,
		beforeEntities: beforeEntities,
		afterEntities:  afterEntities,
	}, nil
}

// Transaction holds a frozen before-world and a mutable after-world for
// a named set of entities.
type Transaction struct {
	beforeWorld    *ecs.World
	afterWorld     *ecs.World
	beforeEntities *prefabmodel.EntityMap
	afterEntities  *prefabmodel.EntityMap
}

// World returns the mutable after-world.
func (t *Transaction) World() *ecs.World { return t.afterWorld }

// EntityFor returns the after-world handle bound to a named EntityID.
func (t *Transaction) EntityFor(id ids.EntityID) (ecs.Entity, bool) {
	return t.afterEntities.ByID(id)
}

// entityPair is one (before, after) correlated slot in the diffed
// entity set, with either side possibly absent.
type entityPair struct {
	id     ids.EntityID
	before *ecs.Entity
	after  *ecs.Entity
}

// unionEntities walks the union of before and after entity sets without
// building an intermediate set twice: it first revisits every named id,
// classifying each side as alive or absent, then discovers any
// after-world entity added post-Begin and mints a fresh id for it,
// binding it into afterEntities as a side effect.
func unionEntities(t *Transaction) []entityPair {
	var pairs []entityPair

	for _, id := range t.beforeEntities.IDs() {
		var beforePtr, afterPtr *ecs.Entity
		if be, ok := t.beforeEntities.ByID(id); ok && t.beforeWorld.Alive(be) {
			b := be
			beforePtr = &b
		}
		if ae, ok := t.afterEntities.ByID(id); ok && t.afterWorld.Alive(ae) {
			a := ae
			afterPtr = &a
		}
		pairs = append(pairs, entityPair{id: id, before: beforePtr, after: afterPtr})
	}

	for _, e := range t.afterWorld.AllEntities() {
		if _, bound := t.afterEntities.ByEntity(e); bound {
			continue
		}
		id := ids.NewEntityID()
		t.afterEntities.Bind(id, e)
		a := e
		pairs = append(pairs, entityPair{id: id, before: nil, after: &a})
	}

	return pairs
}

func componentOpFor(outcome registry.DiffOutcome) ComponentOp {
	switch outcome {
	case registry.Added:
		return ComponentAdd
	case registry.Removed:
		return ComponentRemove
	default:
		return ComponentChange
	}
}

// CreateDiffs walks the union of before/after entities, minting fresh
// EntityIDs for anything added to the after-world, and produces the
// symmetric (apply, revert) WorldDiff pair.
func (t *Transaction) CreateDiffs(reg *registry.Registry) *Diffs {
	apply := &WorldDiff{}
	revert := &WorldDiff{}

	pairs := unionEntities(t)
	for _, p := range pairs {
		switch {
		case p.before != nil && p.after == nil:
			apply.EntityDiffs = append(apply.EntityDiffs, EntityDiff{EntityID: p.id, Op: EntityRemove})
			revert.EntityDiffs = append(revert.EntityDiffs, EntityDiff{EntityID: p.id, Op: EntityAdd})
		case p.before == nil && p.after != nil:
			apply.EntityDiffs = append(apply.EntityDiffs, EntityDiff{EntityID: p.id, Op: EntityAdd})
			revert.EntityDiffs = append(revert.EntityDiffs, EntityDiff{EntityID: p.id, Op: EntityRemove})
		}
	}

	for _, p := range pairs {
		for _, d := range reg.IterDescriptors() {
			applyOutcome, applyData, err := d.DiffOne(t.beforeWorld, p.before, t.afterWorld, p.after)
			if err != nil || applyOutcome == registry.NoChange {
				continue
			}
			revertOutcome, revertData, err := d.DiffOne(t.afterWorld, p.after, t.beforeWorld, p.before)
			if err != nil {
				continue
			}
			apply.ComponentDiffs = append(apply.ComponentDiffs, ComponentDiff{
				EntityID: p.id, Type: d.TypeUUID, Op: componentOpFor(applyOutcome), Data: applyData,
			})
			revert.ComponentDiffs = append(revert.ComponentDiffs, ComponentDiff{
				EntityID: p.id, Type: d.TypeUUID, Op: componentOpFor(revertOutcome), Data: revertData,
			})
		}
	}

	return &Diffs{Apply: apply, Revert: revert}
}
