// Package diffapply replays a transaction.WorldDiff against a fresh
// clone of the world it was diffed from, producing a new world and an
// updated EntityID map.
package diffapply

import (
	"errors"
	"fmt"

	"github.com/edwinsyarief/prefab/pkg/cprint"
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/prefabmodel"
	"github.com/edwinsyarief/prefab/pkg/registry"
	"github.com/edwinsyarief/prefab/pkg/transaction"
)

// ErrPrefabHasReferences is returned by ApplyToPrefab when the target
// prefab still carries unresolved PrefabRefs; callers must cook first
// rather than have the references silently discarded.
var ErrPrefabHasReferences = errors.New("diffapply: prefab has unresolved prefab references")

// Apply clones srcWorld into a fresh world via merger, carries
// srcEntities forward through the clone's result mapping, then replays
// diff's entity diffs (in order) and component diffs (in order) against
// the clone. Unknown entities and component types are skipped, not
// errors: the diff may have been authored against a superset of this
// world, or against types this binary does not know.
func Apply(srcWorld *ecs.World, srcEntities *prefabmodel.EntityMap, diff *transaction.WorldDiff, reg *registry.Registry, merger ecs.Merger) (*ecs.World, *prefabmodel.EntityMap, error) {
	newWorld := ecs.NewWorld()
	mapping, err := newWorld.CloneFrom(srcWorld, merger)
	if err != nil {
		return nil, nil, fmt.Errorf("diffapply: clone source world: %w", err)
	}

	newEntities := prefabmodel.NewEntityMap()
	for _, id := range srcEntities.IDs() {
		se, _ := srcEntities.ByID(id)
		newEntities.Bind(id, mapping[se])
	}

	for _, ed := range diff.EntityDiffs {
		switch ed.Op {
		case transaction.EntityAdd:
			e := newWorld.CreateEntity()
			newEntities.Bind(ed.EntityID, e)
		case transaction.EntityRemove:
			if e, ok := newEntities.ByID(ed.EntityID); ok {
				newWorld.RemoveEntity(e)
				newEntities.Unbind(ed.EntityID)
			}
		}
	}

	for _, cd := range diff.ComponentDiffs {
		e, ok := newEntities.ByID(cd.EntityID)
		if !ok {
			continue
		}
		d, ok := reg.ByUUID(cd.Type)
		if !ok {
			cprint.WarnPrintf("diffapply: component type %s not registered, skipping diff on %s\n", cd.Type, cd.EntityID)
			continue
		}
		var applyErr error
		switch cd.Op {
		case transaction.ComponentChange:
			applyErr = d.ApplyDiff(newWorld, e, cd.Data)
		case transaction.ComponentAdd:
			applyErr = d.DeserializeOne(newWorld, e, cd.Data)
		case transaction.ComponentRemove:
			applyErr = d.Remove(newWorld, e)
		}
		if applyErr != nil {
			return nil, nil, fmt.Errorf("diffapply: apply %s diff on %s: %w", d.TypeName, cd.EntityID, applyErr)
		}
	}

	return newWorld, newEntities, nil
}

// ApplyToPrefab applies diff to an uncooked prefab's world, returning a
// new Model. It refuses prefabs that still reference other prefabs,
// since a WorldDiff has no notion of override ownership.
func ApplyToPrefab(prefab *prefabmodel.Model, diff *transaction.WorldDiff, reg *registry.Registry, merger ecs.Merger) (*prefabmodel.Model, error) {
	if len(prefab.PrefabRefs) > 0 {
		return nil, ErrPrefabHasReferences
	}
	world, entities, err := Apply(prefab.World, prefab.Entities, diff, reg, merger)
	if err != nil {
		return nil, err
	}
	return &prefabmodel.Model{
		ID:         prefab.ID,
		World:      world,
		Entities:   entities,
		PrefabRefs: make(map[ids.PrefabID]*prefabmodel.Ref),
	}, nil
}

// ApplyToCookedPrefab applies diff to a cooked prefab's flat world,
// returning a new Cooked.
func ApplyToCookedPrefab(cooked *prefabmodel.Cooked, diff *transaction.WorldDiff, reg *registry.Registry, merger ecs.Merger) (*prefabmodel.Cooked, error) {
	world, entities, err := Apply(cooked.World, cooked.Entities, diff, reg, merger)
	if err != nil {
		return nil, err
	}
	return &prefabmodel.Cooked{World: world, Entities: entities}, nil
}
