// Command prefabdemo builds a small prefab programmatically, emits it to
// the native text format, reads it back, cooks it against a referencing
// prefab, and runs a transaction over the cooked result, printing a
// diagnostic summary at each step. It exists to exercise the whole
// pipeline end to end.
package main

import (
	"fmt"
	"os"

	"github.com/edwinsyarief/prefab/pkg/clonemerge"
	"github.com/edwinsyarief/prefab/pkg/cooking"
	"github.com/edwinsyarief/prefab/pkg/cprint"
	"github.com/edwinsyarief/prefab/pkg/ecs"
	"github.com/edwinsyarief/prefab/pkg/format"
	"github.com/edwinsyarief/prefab/pkg/ids"
	"github.com/edwinsyarief/prefab/pkg/prefabmodel"
	"github.com/edwinsyarief/prefab/pkg/registry"
	"github.com/edwinsyarief/prefab/pkg/transaction"
)

// Transform and Tag are demo component types, standing in for whatever
// an application would register at startup.
type Transform struct {
	X, Y, Z float64
}

type Tag struct {
	Name string
}

func fatal(context string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", context, err)
	os.Exit(1)
}

func main() {
	reg := registry.NewRegistry()
	transformDesc := registry.RegisterComponent[Transform](reg, ids.NewComponentTypeID())
	registry.RegisterComponent[Tag](reg, ids.NewComponentTypeID())

	// A base prefab with one entity, and a child prefab that references
	// it, overriding the transform.
	base := prefabmodel.New(ids.NewPrefabID())
	hero := base.World.CreateEntity()
	ecs.SetComponent(base.World, hero, Transform{})
	ecs.SetComponent(base.World, hero, Tag{Name: "hero"})
	heroID := ids.NewEntityID()
	base.Entities.Bind(heroID, hero)

	child := prefabmodel.New(ids.NewPrefabID())
	child.RefFor(base.ID).AddOverride(heroID, transformDesc.TypeUUID, []byte(`{"X":10,"Y":5}`))

	doc, err := format.EmitDocument(format.NewEmitter(reg, base))
	if err != nil {
		fatal("emit base prefab", err)
	}
	text, err := format.Marshal(doc)
	if err != nil {
		fatal("marshal base prefab", err)
	}
	cprint.AddPrintln("emitted base prefab:")
	fmt.Println(string(text))

	readBack, err := format.ReadDocument(doc, reg)
	if err != nil {
		fatal("read back base prefab", err)
	}

	lookup := map[ids.PrefabID]*prefabmodel.Model{base.ID: readBack, child.ID: child}
	cooked, err := cooking.Cook(reg, []ids.PrefabID{base.ID, child.ID}, lookup)
	if err != nil {
		fatal("cook", err)
	}

	cprint.AddPrintf("cooked prefab with %d entities\n", cooked.Entities.Len())
	for q := cooked.World.Query(transformDesc.RuntimeTypeID); ; {
		e, ok := q.Next()
		if !ok {
			break
		}
		id, _ := cooked.Entities.ByEntity(e)
		transform, _ := ecs.GetComponent[Transform](cooked.World, e)
		tag, _ := ecs.GetComponent[Tag](cooked.World, e)
		cprint.AddPrintf("  entity %s: transform=%+v tag=%+v\n", id, transform, tag)
	}

	// Mutate the cooked result inside a transaction and show the delta.
	copier := clonemerge.NewCopy(reg)
	b := transaction.NewBuilder()
	cookedHero, _ := cooked.Entities.ByID(heroID)
	tx, err := b.AddEntity(cookedHero, heroID).Begin(cooked.World, copier)
	if err != nil {
		fatal("begin transaction", err)
	}
	after, _ := tx.EntityFor(heroID)
	ecs.SetComponent(tx.World(), after, Transform{X: 10, Y: 5, Z: -1})

	delta, err := tx.DebugString(reg)
	if err != nil {
		fatal("render transaction delta", err)
	}
	cprint.WarnPrintln("transaction delta:")
	fmt.Print(delta)

	diffs := tx.CreateDiffs(reg)
	cprint.AddPrintf("transaction produced %d component diff(s)\n", len(diffs.Apply.ComponentDiffs))
}
