package transaction

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/edwinsyarief/prefab/pkg/clonemerge"
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/registry"
)

type txTransform struct {
	X, Y float64
}

type txVelocity struct {
	VX, VY float32
}

func newTxRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	ecs.ResetGlobalRegistry()
	reg := registry.NewRegistry()
	registry.RegisterComponent[txTransform](reg, ids.ComponentTypeID(uuid.New()))
	registry.RegisterComponent[txVelocity](reg, ids.ComponentTypeID(uuid.New()))
	return reg
}

// TestTransactionAddComponent adds a second component inside a
// transaction and checks the resulting apply/revert pair.
func TestTransactionAddComponent(t *testing.T) {
	reg := newTxRegistry(t)
	src := ecs.NewWorld()
	e := src.CreateEntity()
	ecs.SetComponent(src, e, txTransform{X: 1, Y: 2})
	entityID := ids.NewEntityID()

	tx, err := NewBuilder().AddEntity(e, entityID).Begin(src, clonemerge.NewCopy(reg))
	require.NoError(t, err)

	after, ok := tx.EntityFor(entityID)
	require.True(t, ok)
	ecs.SetComponent(tx.World(), after, txVelocity{VX: 1, VY: 0})

	diffs := tx.CreateDiffs(reg)
	require.Len(t, diffs.Apply.ComponentDiffs, 1)
	require.Equal(t, ComponentAdd, diffs.Apply.ComponentDiffs[0].Op)
	require.Equal(t, entityID, diffs.Apply.ComponentDiffs[0].EntityID)

	require.Len(t, diffs.Revert.ComponentDiffs, 1)
	require.Equal(t, ComponentRemove, diffs.Revert.ComponentDiffs[0].Op)
	require.Empty(t, diffs.Revert.ComponentDiffs[0].Data)
}

// TestTransactionAddEntity creates a brand-new entity inside a
// transaction and checks that a fresh EntityID is minted for it.
func TestTransactionAddEntity(t *testing.T) {
	reg := newTxRegistry(t)
	src := ecs.NewWorld()

	tx, err := NewBuilder().Begin(src, clonemerge.NewCopy(reg))
	require.NoError(t, err)

	newE := tx.World().CreateEntity()
	ecs.SetComponent(tx.World(), newE, txTransform{X: 9, Y: 9})

	diffs := tx.CreateDiffs(reg)
	require.Len(t, diffs.Apply.EntityDiffs, 1)
	require.Equal(t, EntityAdd, diffs.Apply.EntityDiffs[0].Op)
	mintedID := diffs.Apply.EntityDiffs[0].EntityID

	require.Len(t, diffs.Apply.ComponentDiffs, 1)
	require.Equal(t, ComponentAdd, diffs.Apply.ComponentDiffs[0].Op)
	require.Equal(t, mintedID, diffs.Apply.ComponentDiffs[0].EntityID)

	require.Len(t, diffs.Revert.EntityDiffs, 1)
	require.Equal(t, EntityRemove, diffs.Revert.EntityDiffs[0].Op)
	require.Len(t, diffs.Revert.ComponentDiffs, 1)
	require.Equal(t, ComponentRemove, diffs.Revert.ComponentDiffs[0].Op)
}

func TestDebugStringRendersFieldLevelDelta(t *testing.T) {
	reg := newTxRegistry(t)
	src := ecs.NewWorld()
	e := src.CreateEntity()
	ecs.SetComponent(src, e, txTransform{X: 1, Y: 2})
	entityID := ids.NewEntityID()

	tx, err := NewBuilder().AddEntity(e, entityID).Begin(src, clonemerge.NewCopy(reg))
	require.NoError(t, err)

	after, _ := tx.EntityFor(entityID)
	ecs.SetComponent(tx.World(), after, txTransform{X: 9, Y: 2})
	ecs.SetComponent(tx.World(), after, txVelocity{VX: 1})

	out, err := tx.DebugString(reg)
	require.NoError(t, err)
	require.Contains(t, out, entityID.String())
	require.Contains(t, out, `"X"`)
	require.Contains(t, out, "+ ")
}

func TestTransactionNoChangeProducesNoComponentDiff(t *testing.T) {
	reg := newTxRegistry(t)
	src := ecs.NewWorld()
	e := src.CreateEntity()
	ecs.SetComponent(src, e, txTransform{X: 1, Y: 1})
	entityID := ids.NewEntityID()

	tx, err := NewBuilder().AddEntity(e, entityID).Begin(src, clonemerge.NewCopy(reg))
	require.NoError(t, err)

	diffs := tx.CreateDiffs(reg)
	require.Empty(t, diffs.Apply.ComponentDiffs)
	require.Empty(t, diffs.Revert.ComponentDiffs)
}
