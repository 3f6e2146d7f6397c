package ecs

import "testing"

type testPos struct {
	X, Y float64
}

type testVel struct {
	VX, VY float64
}

func TestCreateAndRemoveEntity(t *testing.T) {
	w := NewWorld()
	e := w.CreateEntity()
	if !w.Alive(e) {
		t.Fatal("expected freshly created entity to be alive")
	}
	if !w.RemoveEntity(e) {
		t.Fatal("expected removal of live entity to succeed")
	}
	if w.Alive(e) {
		t.Error("expected removed entity to be dead")
	}
	if w.RemoveEntity(e) {
		t.Error("expected second removal to report failure")
	}
}

func TestRecycledIDGetsNewVersion(t *testing.T) {
	w := NewWorld()
	e1 := w.CreateEntity()
	w.RemoveEntity(e1)
	e2 := w.CreateEntity()
	if e2.ID != e1.ID {
		t.Fatalf("expected id %d to be recycled, got %d", e1.ID, e2.ID)
	}
	if e2.Version == e1.Version {
		t.Error("expected recycled id to carry a new version")
	}
	if w.Alive(e1) {
		t.Error("expected stale handle to be dead after recycling")
	}
}

func TestSetGetRemoveComponent(t *testing.T) {
	RegisterComponent[testPos]()
	RegisterComponent[testVel]()
	w := NewWorld()
	e := w.CreateEntity()

	if !SetComponent(w, e, testPos{X: 1, Y: 2}) {
		t.Fatal("SetComponent failed")
	}
	if !SetComponent(w, e, testVel{VX: 3, VY: 4}) {
		t.Fatal("SetComponent failed")
	}

	p, ok := GetComponent[testPos](w, e)
	if !ok || *p != (testPos{X: 1, Y: 2}) {
		t.Fatalf("expected {1 2}, got %+v (ok=%v)", p, ok)
	}

	if !RemoveComponent[testVel](w, e) {
		t.Fatal("RemoveComponent failed")
	}
	if _, ok := GetComponent[testVel](w, e); ok {
		t.Error("expected velocity to be gone")
	}
	// position must survive its neighbor's removal
	p, ok = GetComponent[testPos](w, e)
	if !ok || *p != (testPos{X: 1, Y: 2}) {
		t.Errorf("expected position to survive, got %+v (ok=%v)", p, ok)
	}
}

func TestComponentTypesOfListsArchetypeLayout(t *testing.T) {
	posID := RegisterComponent[testPos]()
	velID := RegisterComponent[testVel]()
	w := NewWorld()
	e := w.CreateEntity()
	SetComponent(w, e, testPos{})
	SetComponent(w, e, testVel{})

	got := w.ComponentTypesOf(e)
	if len(got) != 2 {
		t.Fatalf("expected 2 component types, got %v", got)
	}
	seen := map[ComponentID]bool{}
	for _, id := range got {
		seen[id] = true
	}
	if !seen[posID] || !seen[velID] {
		t.Errorf("expected %d and %d in %v", posID, velID, got)
	}
}

func TestQueryVisitsOnlyMatchingEntities(t *testing.T) {
	posID := RegisterComponent[testPos]()
	velID := RegisterComponent[testVel]()
	w := NewWorld()

	both := w.CreateEntity()
	SetComponent(w, both, testPos{})
	SetComponent(w, both, testVel{})

	posOnly := w.CreateEntity()
	SetComponent(w, posOnly, testPos{})

	w.CreateEntity() // bare entity, must match nothing below

	var posCount int
	for q := w.Query(posID); ; {
		if _, ok := q.Next(); !ok {
			break
		}
		posCount++
	}
	if posCount != 2 {
		t.Errorf("expected 2 entities with position, got %d", posCount)
	}

	var bothCount int
	for q := w.Query(posID, velID); ; {
		e, ok := q.Next()
		if !ok {
			break
		}
		if e != both {
			t.Errorf("unexpected entity %v in pos+vel query", e)
		}
		bothCount++
	}
	if bothCount != 1 {
		t.Errorf("expected 1 entity with both, got %d", bothCount)
	}
}

func TestResourcesRoundTrip(t *testing.T) {
	type assetTable struct{ Count int }
	r := NewResources()
	if HasResource[assetTable](r) {
		t.Fatal("expected empty table")
	}
	AddResource(r, &assetTable{Count: 3})
	got, ok := GetResource[assetTable](r)
	if !ok || got.Count != 3 {
		t.Errorf("expected Count=3, got %+v (ok=%v)", got, ok)
	}
}
