package history

import (
	"testing"

	"homestead.ai/internal/sim/world"
)

func TestRecorder_AppendsOnFirstApplication(t *testing.T) {
	var entities []world.Entity
	mapper := make(EntityMap)
	rec := NewRecorder(&entities, mapper)

	e1 := world.Entity{Index: 1, Gen: 1}
	e2 := world.Entity{Index: 2, Gen: 1}
	rec.Record(e1)
	rec.Record(e2)

	if len(entities) != 2 || entities[0] != e1 || entities[1] != e2 {
		t.Fatalf("entities = %v, want [%v %v]", entities, e1, e2)
	}
	if len(mapper) != 0 {
		t.Fatalf("first application should not produce a remap, got %v", mapper)
	}
}

func TestRecorder_MatchingHandleIsNoop(t *testing.T) {
	e1 := world.Entity{Index: 1, Gen: 1}
	entities := []world.Entity{e1}
	mapper := make(EntityMap)

	NewRecorder(&entities, mapper).Record(e1)

	if len(entities) != 1 || entities[0] != e1 {
		t.Fatalf("entities = %v, want [%v]", entities, e1)
	}
	if len(mapper) != 0 {
		t.Fatalf("matching handle should not produce a remap, got %v", mapper)
	}
}

func TestRecorder_DriftOverwritesAndMaps(t *testing.T) {
	e1 := world.Entity{Index: 1, Gen: 1}
	e1v2 := world.Entity{Index: 1, Gen: 2}
	e2 := world.Entity{Index: 2, Gen: 1}
	entities := []world.Entity{e1, e2}
	mapper := make(EntityMap)

	rec := NewRecorder(&entities, mapper)
	rec.Record(e1v2)
	rec.Record(e2)

	if entities[0] != e1v2 {
		t.Fatalf("index 0 = %v, want overwritten to %v", entities[0], e1v2)
	}
	if entities[1] != e2 {
		t.Fatalf("index 1 = %v, want untouched %v", entities[1], e2)
	}
	if len(mapper) != 1 || mapper.Map(e1) != e1v2 {
		t.Fatalf("mapper = %v, want {%v: %v}", mapper, e1, e1v2)
	}
}

func TestRecorder_ListNeverShrinks(t *testing.T) {
	e1 := world.Entity{Index: 1, Gen: 1}
	e2 := world.Entity{Index: 2, Gen: 1}
	entities := []world.Entity{e1, e2}
	mapper := make(EntityMap)

	// Re-application that records fewer handles than before.
	NewRecorder(&entities, mapper).Record(e1)

	if len(entities) != 2 {
		t.Fatalf("list shrank to %d entries, want 2", len(entities))
	}
}

func TestEntityMap_MapFallsThrough(t *testing.T) {
	m := make(EntityMap)
	e := world.Entity{Index: 7, Gen: 3}
	if got := m.Map(e); got != e {
		t.Fatalf("unmapped handle should map to itself, got %v", got)
	}
}
