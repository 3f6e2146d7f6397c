package cooking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/edwinsyarief/prefab/pkg/cprint"
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/prefabmodel"
	"github.com/edwinsyarief/prefab/pkg/registry"
)

type cookTransform struct {
	X, Y float64
}

func newCookRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	ecs.ResetGlobalRegistry()
	reg := registry.NewRegistry()
	registry.RegisterComponent[cookTransform](reg, ids.ComponentTypeID(uuid.New()))
	return reg
}

func newPrefabWithEntity(v cookTransform) (*prefabmodel.Model, ids.EntityID) {
	model := prefabmodel.New(ids.NewPrefabID())
	e := model.World.CreateEntity()
	ecs.SetComponent(model.World, e, v)
	entityID := ids.NewEntityID()
	model.Entities.Bind(entityID, e)
	return model, entityID
}

func TestCookMergesMultiplePrefabsWithoutOverrides(t *testing.T) {
	reg := newCookRegistry(t)

	a, aEntity := newPrefabWithEntity(cookTransform{X: 1, Y: 1})
	b, bEntity := newPrefabWithEntity(cookTransform{X: 2, Y: 2})

	lookup := map[ids.PrefabID]*prefabmodel.Model{a.ID: a, b.ID: b}
	cooked, err := Cook(reg, []ids.PrefabID{a.ID, b.ID}, lookup)
	require.NoError(t, err)
	require.Equal(t, 2, cooked.Entities.Len())

	ce, ok := cooked.Entities.ByID(aEntity)
	require.True(t, ok)
	v, ok := ecs.GetComponent[cookTransform](cooked.World, ce)
	require.True(t, ok)
	require.Equal(t, cookTransform{X: 1, Y: 1}, *v)

	ce2, ok := cooked.Entities.ByID(bEntity)
	require.True(t, ok)
	v2, ok := ecs.GetComponent[cookTransform](cooked.World, ce2)
	require.True(t, ok)
	require.Equal(t, cookTransform{X: 2, Y: 2}, *v2)
}

// TestCookAppliesOverrideFromReferencingPrefab checks that a
// prefab referencing another applies its override on cook.
func TestCookAppliesOverrideFromReferencingPrefab(t *testing.T) {
	reg := newCookRegistry(t)

	base, baseEntity := newPrefabWithEntity(cookTransform{X: 1, Y: 1})

	child := prefabmodel.New(ids.NewPrefabID())
	ref := child.RefFor(base.ID)
	ref.AddOverride(baseEntity, reg.IterDescriptors()[0].TypeUUID, []byte(`{"X":5}`))

	lookup := map[ids.PrefabID]*prefabmodel.Model{base.ID: base, child.ID: child}
	cooked, err := Cook(reg, []ids.PrefabID{base.ID, child.ID}, lookup)
	require.NoError(t, err)

	ce, ok := cooked.Entities.ByID(baseEntity)
	require.True(t, ok)
	v, ok := ecs.GetComponent[cookTransform](cooked.World, ce)
	require.True(t, ok)
	require.Equal(t, cookTransform{X: 5, Y: 1}, *v)
}

// TestCookSkipsOverrideForUnknownComponentType checks that an override
// whose component type this process never registered is dropped with a
// diagnostic instead of aborting the cook.
func TestCookSkipsOverrideForUnknownComponentType(t *testing.T) {
	cprint.DisableOutput = true
	defer func() { cprint.DisableOutput = false }()

	reg := newCookRegistry(t)
	base, baseEntity := newPrefabWithEntity(cookTransform{X: 1, Y: 1})

	child := prefabmodel.New(ids.NewPrefabID())
	ref := child.RefFor(base.ID)
	ref.AddOverride(baseEntity, ids.NewComponentTypeID(), []byte(`{"X":5}`))

	lookup := map[ids.PrefabID]*prefabmodel.Model{base.ID: base, child.ID: child}
	cooked, err := Cook(reg, []ids.PrefabID{base.ID, child.ID}, lookup)
	require.NoError(t, err)

	ce, ok := cooked.Entities.ByID(baseEntity)
	require.True(t, ok)
	v, ok := ecs.GetComponent[cookTransform](cooked.World, ce)
	require.True(t, ok)
	require.Equal(t, cookTransform{X: 1, Y: 1}, *v)
}

func TestCookErrorsOnOverrideForUnknownEntity(t *testing.T) {
	reg := newCookRegistry(t)

	base, _ := newPrefabWithEntity(cookTransform{X: 1, Y: 1})
	child := prefabmodel.New(ids.NewPrefabID())
	ref := child.RefFor(base.ID)
	ref.AddOverride(ids.NewEntityID(), reg.IterDescriptors()[0].TypeUUID, []byte(`{"X":5}`))

	lookup := map[ids.PrefabID]*prefabmodel.Model{base.ID: base, child.ID: child}
	_, err := Cook(reg, []ids.PrefabID{base.ID, child.ID}, lookup)
	require.Error(t, err)
}
