package diffapply

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/edwinsyarief/prefab/pkg/clonemerge"
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/prefabmodel"
	"github.com/edwinsyarief/prefab/pkg/registry"
	"github.com/edwinsyarief/prefab/pkg/transaction"
)

type daTransform struct {
	X, Y float64
}

func newDiffapplyRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	ecs.ResetGlobalRegistry()
	reg := registry.NewRegistry()
	registry.RegisterComponent[daTransform](reg, ids.ComponentTypeID(uuid.New()))
	return reg
}

// TestApplyThenRevertRoundTrips checks the "apply then revert
// against the same baseline must yield an equivalent world" property.
func TestApplyThenRevertRoundTrips(t *testing.T) {
	reg := newDiffapplyRegistry(t)
	copier := clonemerge.NewCopy(reg)

	src := ecs.NewWorld()
	e := src.CreateEntity()
	ecs.SetComponent(src, e, daTransform{X: 1, Y: 1})
	entityID := ids.NewEntityID()
	srcEntities := prefabmodel.NewEntityMap()
	srcEntities.Bind(entityID, e)

	tx, err := transaction.NewBuilder().AddEntity(e, entityID).Begin(src, copier)
	require.NoError(t, err)

	after, _ := tx.EntityFor(entityID)
	ecs.SetComponent(tx.World(), after, daTransform{X: 5, Y: 1})

	diffs := tx.CreateDiffs(reg)

	midWorld, midEntities, err := Apply(src, srcEntities, diffs.Apply, reg, copier)
	require.NoError(t, err)
	midE, ok := midEntities.ByID(entityID)
	require.True(t, ok)
	midV, ok := ecs.GetComponent[daTransform](midWorld, midE)
	require.True(t, ok)
	require.Equal(t, daTransform{X: 5, Y: 1}, *midV)

	finalWorld, finalEntities, err := Apply(midWorld, midEntities, diffs.Revert, reg, copier)
	require.NoError(t, err)
	finalE, ok := finalEntities.ByID(entityID)
	require.True(t, ok)
	finalV, ok := ecs.GetComponent[daTransform](finalWorld, finalE)
	require.True(t, ok)
	require.Equal(t, daTransform{X: 1, Y: 1}, *finalV)
}

// worldSnapshot captures a componentwise view of every mapped entity:
// EntityID to component type name to serialized value, for deep equality
// across worlds whose raw handles differ.
func worldSnapshot(t *testing.T, reg *registry.Registry, w *ecs.World, entities *prefabmodel.EntityMap) map[string]map[string]string {
	t.Helper()
	snap := make(map[string]map[string]string)
	for _, id := range entities.IDs() {
		e, _ := entities.ByID(id)
		comps := make(map[string]string)
		for _, d := range reg.IterDescriptors() {
			data, err := d.SerializeOne(w, e)
			if err != nil {
				continue
			}
			comps[d.TypeName] = string(data)
		}
		snap[id.String()] = comps
	}
	return snap
}

// TestApplyRevertIsComponentwiseIdentity snapshots the source world,
// applies a transaction's apply diff then its revert diff, and requires
// the final world to be componentwise equal to the source for every
// registered type.
func TestApplyRevertIsComponentwiseIdentity(t *testing.T) {
	reg := newDiffapplyRegistry(t)
	copier := clonemerge.NewCopy(reg)

	src := ecs.NewWorld()
	e := src.CreateEntity()
	ecs.SetComponent(src, e, daTransform{X: 2, Y: 3})
	entityID := ids.NewEntityID()
	srcEntities := prefabmodel.NewEntityMap()
	srcEntities.Bind(entityID, e)

	want := worldSnapshot(t, reg, src, srcEntities)

	tx, err := transaction.NewBuilder().AddEntity(e, entityID).Begin(src, copier)
	require.NoError(t, err)
	after, _ := tx.EntityFor(entityID)
	ecs.SetComponent(tx.World(), after, daTransform{X: -1, Y: 3})
	diffs := tx.CreateDiffs(reg)

	midWorld, midEntities, err := Apply(src, srcEntities, diffs.Apply, reg, copier)
	require.NoError(t, err)
	finalWorld, finalEntities, err := Apply(midWorld, midEntities, diffs.Revert, reg, copier)
	require.NoError(t, err)

	got := worldSnapshot(t, reg, finalWorld, finalEntities)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("world changed after apply+revert (-want +got):\n%s", diff)
	}
}

func TestApplyToPrefabRejectsUnresolvedReferences(t *testing.T) {
	reg := newDiffapplyRegistry(t)
	copier := clonemerge.NewCopy(reg)

	prefab := prefabmodel.New(ids.NewPrefabID())
	prefab.RefFor(ids.NewPrefabID())

	_, err := ApplyToPrefab(prefab, &transaction.WorldDiff{}, reg, copier)
	require.ErrorIs(t, err, ErrPrefabHasReferences)
}

func TestApplyAddsAndRemovesEntities(t *testing.T) {
	reg := newDiffapplyRegistry(t)
	copier := clonemerge.NewCopy(reg)

	src := ecs.NewWorld()
	e := src.CreateEntity()
	ecs.SetComponent(src, e, daTransform{X: 0, Y: 0})
	entityID := ids.NewEntityID()
	srcEntities := prefabmodel.NewEntityMap()
	srcEntities.Bind(entityID, e)

	newID := ids.NewEntityID()
	diff := &transaction.WorldDiff{
		EntityDiffs: []transaction.EntityDiff{
			{EntityID: entityID, Op: transaction.EntityRemove},
			{EntityID: newID, Op: transaction.EntityAdd},
		},
	}

	newWorld, newEntities, err := Apply(src, srcEntities, diff, reg, copier)
	require.NoError(t, err)
	_, ok := newEntities.ByID(entityID)
	require.False(t, ok)
	newE, ok := newEntities.ByID(newID)
	require.True(t, ok)
	require.True(t, newWorld.Alive(newE))
}
