package world

import (
	"testing"

	"homestead.ai/internal/protocol"
)

func TestSpawn_RecyclesSlotsWithNewGeneration(t *testing.T) {
	w := New()
	e1 := w.Spawn(Object{Kind: "table"})
	if e1.Gen != 1 {
		t.Fatalf("first spawn gen = %d, want 1", e1.Gen)
	}

	if !w.Despawn(e1) {
		t.Fatalf("despawn failed")
	}
	e2 := w.Spawn(Object{Kind: "chair"})
	if e2.Index != e1.Index {
		t.Fatalf("expected slot reuse, got index %d vs %d", e2.Index, e1.Index)
	}
	if e2.Gen != e1.Gen+1 {
		t.Fatalf("expected generation bump, got %d", e2.Gen)
	}
	if e1 == e2 {
		t.Fatalf("stale handle aliases the new occupant")
	}

	if _, ok := w.Get(e1); ok {
		t.Fatalf("stale handle still resolves")
	}
	obj, ok := w.Get(e2)
	if !ok || obj.Kind != "chair" {
		t.Fatalf("new handle does not resolve: %+v ok=%v", obj, ok)
	}
}

func TestDespawn_UnknownHandleIsNoop(t *testing.T) {
	w := New()
	if w.Despawn(Entity{Index: 42, Gen: 1}) {
		t.Fatalf("despawn of unknown handle reported success")
	}
	if len(w.DrainDeltas()) != 0 {
		t.Fatalf("despawn of unknown handle emitted deltas")
	}
}

func TestDeltas_ReplicaConverges(t *testing.T) {
	auth := New()
	replica := New()

	e1 := auth.Spawn(Object{Kind: "table", Pos: Vec3i{X: 1, Y: 0, Z: 2}, Yaw: 90})
	e2 := auth.Spawn(Object{Kind: "chair", Pos: Vec3i{X: 2, Y: 0, Z: 2}})
	auth.Move(e1, Vec3i{X: 5, Y: 0, Z: 5}, 180)
	auth.Despawn(e2)

	for _, d := range auth.DrainDeltas() {
		// Round-trip through the wire form, as the session does.
		replica.ApplyDelta(DeltaFromProto(DeltaToProto(d)))
	}

	if replica.Len() != 1 {
		t.Fatalf("replica has %d objects, want 1", replica.Len())
	}
	obj, ok := replica.Get(e1)
	if !ok {
		t.Fatalf("replica lost %v", e1)
	}
	if obj.Kind != "table" || obj.Pos != (Vec3i{X: 5, Y: 0, Z: 5}) || obj.Yaw != 180 {
		t.Fatalf("replica object = %+v", obj)
	}
}

func TestDrainDeltas_Resets(t *testing.T) {
	w := New()
	w.Spawn(Object{Kind: "table"})
	if n := len(w.DrainDeltas()); n != 1 {
		t.Fatalf("first drain = %d deltas, want 1", n)
	}
	if n := len(w.DrainDeltas()); n != 0 {
		t.Fatalf("second drain = %d deltas, want 0", n)
	}
}

func TestDeltaProto_DespawnKeepsKindOut(t *testing.T) {
	w := New()
	e := w.Spawn(Object{Kind: "table"})
	w.Despawn(e)
	deltas := w.DrainDeltas()
	if len(deltas) != 2 {
		t.Fatalf("deltas = %d, want 2", len(deltas))
	}
	p := DeltaToProto(deltas[1])
	if p.Kind != protocol.DeltaDespawn || p.ObjectKind != "" {
		t.Fatalf("despawn delta = %+v", p)
	}
}
