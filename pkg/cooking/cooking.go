// Package cooking flattens a set of prefabs, linked by refs, into one
// cooked prefab with every override already applied.
package cooking

import (
	"fmt"

	"github.com/edwinsyarief/prefab/pkg/clonemerge"
	"github.com/edwinsyarief/prefab/pkg/cprint"
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/prefabmodel"
	"github.com/edwinsyarief/prefab/pkg/registry"
)

// Cook merges every prefab in prefabLookup into one flat world, then
// applies override diffs in cookOrder (base prefabs first, so later
// overrides win where they target the same component). The clone pass is
// order-independent; the override pass depends on cookOrder.
//
// An override targeting an entity absent from every cooked prefab is
// fatal: the document set is internally inconsistent. An override whose
// component type is not registered is skipped with a diagnostic and kept
// out of the cooked world; the uncooked prefab still carries it for
// re-emission.
func Cook(reg *registry.Registry, cookOrder []ids.PrefabID, prefabLookup map[ids.PrefabID]*prefabmodel.Model) (*prefabmodel.Cooked, error) {
	world := ecs.NewWorld()
	entityLookup := prefabmodel.NewEntityMap()
	copier := clonemerge.NewCopy(reg)

	for _, prefab := range prefabLookup {
		mapping, err := world.CloneFrom(prefab.World, copier)
		if err != nil {
			return nil, fmt.Errorf("cooking: clone prefab %s: %w", prefab.ID, err)
		}
		for _, entityID := range prefab.Entities.IDs() {
			srcEntity, _ := prefab.Entities.ByID(entityID)
			entityLookup.Bind(entityID, mapping[srcEntity])
		}
	}

	for _, prefabID := range cookOrder {
		prefab, ok := prefabLookup[prefabID]
		if !ok {
			return nil, fmt.Errorf("cooking: cook order references unknown prefab %s", prefabID)
		}
		for _, ref := range prefab.PrefabRefs {
			for entityID, overrides := range ref.Overrides {
				cookedEntity, ok := entityLookup.ByID(entityID)
				if !ok {
					return nil, fmt.Errorf("cooking: override targets entity %s not present in any cooked prefab", entityID)
				}
				for _, override := range overrides {
					d, ok := reg.ByUUID(override.Type)
					if !ok {
						cprint.WarnPrintf("cooking: override component type %s on %s not registered, skipping\n", override.Type, entityID)
						continue
					}
					if err := d.ApplyDiff(world, cookedEntity, override.Patch); err != nil {
						return nil, fmt.Errorf("cooking: apply override %s on %s: %w", d.TypeName, entityID, err)
					}
				}
			}
		}
	}

	return &prefabmodel.Cooked{World: world, Entities: entityLookup}, nil
}
