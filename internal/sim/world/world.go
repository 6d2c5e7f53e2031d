package world

import (
	"fmt"
	"sort"

	"homestead.ai/internal/protocol"
)

type Vec3i struct{ X, Y, Z int }

func (v Vec3i) String() string { return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z) }

// Object is a placed homestead object (furniture, fixtures and the like).
type Object struct {
	Kind  string
	Pos   Vec3i
	Yaw   int
	Label string
}

// World is a single-threaded object store. The authority owns the allocating
// instance; each editor session keeps a replica whose handles are assigned by
// the authority through SpawnAs.
//
// All state must be accessed only from the owning loop goroutine.
type World struct {
	objects map[Entity]*Object

	nextIndex uint32
	free      []Entity

	deltas []Delta
}

func New() *World {
	return &World{objects: make(map[Entity]*Object)}
}

// Spawn allocates a handle and places obj. Freed slots are reused with a
// bumped generation. Authority side only.
func (w *World) Spawn(obj Object) Entity {
	var e Entity
	if n := len(w.free); n > 0 {
		e = w.free[n-1]
		w.free = w.free[:n-1]
		e.Gen++
	} else {
		w.nextIndex++
		e = Entity{Index: w.nextIndex, Gen: 1}
	}
	w.objects[e] = &obj
	w.pushDelta(Delta{Kind: protocol.DeltaSpawn, Entity: e, Object: obj})
	return e
}

// SpawnAs places obj under an authority-assigned handle. Replica side only.
func (w *World) SpawnAs(e Entity, obj Object) {
	w.objects[e] = &obj
}

// Despawn removes the object behind e. The freed slot becomes reusable with a
// new generation on the authority; replicas simply forget it.
func (w *World) Despawn(e Entity) bool {
	if _, ok := w.objects[e]; !ok {
		return false
	}
	delete(w.objects, e)
	w.free = append(w.free, e)
	w.pushDelta(Delta{Kind: protocol.DeltaDespawn, Entity: e})
	return true
}

// Forget removes the object behind e without recycling the slot or emitting a
// delta. Replica side counterpart of Despawn.
func (w *World) Forget(e Entity) {
	delete(w.objects, e)
}

func (w *World) Get(e Entity) (*Object, bool) {
	obj, ok := w.objects[e]
	return obj, ok
}

// Move updates position and yaw and emits a replication delta.
func (w *World) Move(e Entity, pos Vec3i, yaw int) bool {
	obj, ok := w.objects[e]
	if !ok {
		return false
	}
	obj.Pos = pos
	obj.Yaw = yaw
	w.pushDelta(Delta{Kind: protocol.DeltaMove, Entity: e, Object: Object{Pos: pos, Yaw: yaw}})
	return true
}

func (w *World) Len() int { return len(w.objects) }

// Entities returns live handles in deterministic order. Intended for digests
// and tests.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, len(w.objects))
	for e := range w.objects {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Gen < out[j].Gen
	})
	return out
}
