package prefabmodel

import (
	"errors"
	"fmt"

	"github.com/edwinsyarief/prefab/pkg/clonemerge"
	"github.com/edwinsyarief/prefab/pkg/cprint"
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/registry"
)

// ErrUnexpectedComponentChange is returned by Builder.CreatePrefab when
// the structural diff between before and after adds or removes a
// component the builder was not told to expect via AllowComponentAdd or
// AllowComponentRemove.
var ErrUnexpectedComponentChange = errors.New("prefabmodel: component add/remove was not declared supported by this builder")

// ErrEntityDeleted is returned by Builder.CreatePrefab when an entity the
// builder was tracking was removed from the after-world; overrides cannot
// express entity deletion.
var ErrEntityDeleted = errors.New("prefabmodel: an entity tracked by the builder was deleted; not supported")

type entityInfo struct {
	before, after ecs.Entity
}

// Option configures a Builder.
type Option func(*Builder)

// AllowComponentAdd permits CreatePrefab to see a component added during
// the builder session without failing; the add is dropped with a
// diagnostic rather than recorded, since an override can only patch a
// value the referenced prefab already carries.
func AllowComponentAdd() Option { return func(b *Builder) { b.allowAdd = true } }

// AllowComponentRemove permits CreatePrefab to see a component removed
// during the builder session without failing; same caveat as
// AllowComponentAdd.
func AllowComponentRemove() Option { return func(b *Builder) { b.allowRemove = true } }

// Builder accumulates edits against a cooked prefab and produces a new,
// uncooked prefab that references the original with override diffs.
type Builder struct {
	beforeWorld  *ecs.World
	afterWorld   *ecs.World
	entities     map[ids.EntityID]entityInfo
	parentPrefab ids.PrefabID
	allowAdd     bool
	allowRemove  bool
}

// NewBuilder clones cooked's world twice under merger's clone policy,
// once into a frozen before-snapshot and once into the after-world the
// caller will mutate, and begins tracking cooked's externally visible
// entities.
func NewBuilder(parentPrefab ids.PrefabID, cooked *Cooked, merger ecs.Merger, opts ...Option) (*Builder, error) {
	b := &Builder{
		beforeWorld:  ecs.NewWorld(),
		afterWorld:   ecs.NewWorld(),
		entities:     make(map[ids.EntityID]entityInfo),
		parentPrefab: parentPrefab,
	}
	for _, opt := range opts {
		opt(b)
	}

	beforeMap, err := b.beforeWorld.CloneFrom(cooked.World, merger)
	if err != nil {
		return nil, fmt.Errorf("prefabmodel: builder before-snapshot: %w", err)
	}
	afterMap, err := b.afterWorld.CloneFrom(cooked.World, merger)
	if err != nil {
		return nil, fmt.Errorf("prefabmodel: builder after-snapshot: %w", err)
	}

	for _, id := range cooked.Entities.IDs() {
		srcE, _ := cooked.Entities.ByID(id)
		b.entities[id] = entityInfo{before: beforeMap[srcE], after: afterMap[srcE]}
	}
	return b, nil
}

// World returns the mutable after-world; callers add/remove components and
// entities on it freely before calling CreatePrefab.
func (b *Builder) World() *ecs.World { return b.afterWorld }

// EntityFor returns the after-world handle bound to a tracked EntityID.
func (b *Builder) EntityFor(id ids.EntityID) (ecs.Entity, bool) {
	info, ok := b.entities[id]
	if !ok {
		return ecs.Entity{}, false
	}
	return info.after, true
}

// CreatePrefab diffs every tracked entity's before/after component set
// through reg, producing a new uncooked Model that embeds parentPrefab
// with those diffs as overrides, plus a fresh entity for anything added to
// the after-world outright.
func (b *Builder) CreatePrefab(reg *registry.Registry) (*Model, error) {
	preexisting := make(map[ecs.Entity]bool, len(b.entities))
	for _, info := range b.entities {
		if !b.afterWorld.Alive(info.after) {
			return nil, ErrEntityDeleted
		}
		preexisting[info.after] = true
	}

	newWorld := ecs.NewWorld()
	newEntities := NewEntityMap()
	copier := clonemerge.NewCopy(reg)
	for _, e := range b.afterWorld.AllEntities() {
		if preexisting[e] {
			continue
		}
		de, err := newWorld.CloneFromSingle(b.afterWorld, e, copier)
		if err != nil {
			return nil, fmt.Errorf("prefabmodel: clone new entity: %w", err)
		}
		newEntities.Bind(ids.NewEntityID(), de)
	}

	ref := NewRef(b.parentPrefab)
	for entityID, info := range b.entities {
		before, after := info.before, info.after
		for _, d := range reg.IterDescriptors() {
			outcome, payload, err := d.DiffOne(b.beforeWorld, &before, b.afterWorld, &after)
			if err != nil {
				return nil, fmt.Errorf("prefabmodel: diff %s: %w", d.TypeName, err)
			}
			switch outcome {
			case registry.NoChange:
			case registry.Changed:
				ref.AddOverride(entityID, d.TypeUUID, payload)
			case registry.Added:
				if !b.allowAdd {
					return nil, fmt.Errorf("prefabmodel: component %s added on %s: %w", d.TypeName, entityID, ErrUnexpectedComponentChange)
				}
				cprint.WarnPrintf("prefabmodel: component %s added on %s during builder session; not recorded as an override\n", d.TypeName, entityID)
			case registry.Removed:
				if !b.allowRemove {
					return nil, fmt.Errorf("prefabmodel: component %s removed on %s: %w", d.TypeName, entityID, ErrUnexpectedComponentChange)
				}
				cprint.WarnPrintf("prefabmodel: component %s removed on %s during builder session; not recorded as an override\n", d.TypeName, entityID)
			}
		}
	}

	return &Model{
		ID:         ids.NewPrefabID(),
		World:      newWorld,
		Entities:   newEntities,
		PrefabRefs: map[ids.PrefabID]*Ref{b.parentPrefab: ref},
	}, nil
}
