package world

import "homestead.ai/internal/protocol"

// Delta is one replication step produced by the authority and consumed by
// session replicas.
type Delta struct {
	Kind   string // protocol.DeltaSpawn/DeltaMove/DeltaDespawn
	Entity Entity
	Object Object // spawn: full object; move: pos/yaw only
}

func (w *World) pushDelta(d Delta) {
	w.deltas = append(w.deltas, d)
}

// DrainDeltas returns the deltas accumulated since the last drain.
func (w *World) DrainDeltas() []Delta {
	out := w.deltas
	w.deltas = nil
	return out
}

// ApplyDelta applies one authority delta to a replica. Unknown entities on
// move/despawn are ignored; the authority stream is the source of truth and a
// replica may join mid-session.
func (w *World) ApplyDelta(d Delta) {
	switch d.Kind {
	case protocol.DeltaSpawn:
		w.SpawnAs(d.Entity, d.Object)
	case protocol.DeltaMove:
		if obj, ok := w.objects[d.Entity]; ok {
			obj.Pos = d.Object.Pos
			obj.Yaw = d.Object.Yaw
		}
	case protocol.DeltaDespawn:
		w.Forget(d.Entity)
	}
}

func EntityToRef(e Entity) protocol.EntityRef {
	return protocol.EntityRef{Index: e.Index, Gen: e.Gen}
}

func EntityFromRef(r protocol.EntityRef) Entity {
	return Entity{Index: r.Index, Gen: r.Gen}
}

func Vec3iToProto(v Vec3i) protocol.Vec3i { return protocol.Vec3i{X: v.X, Y: v.Y, Z: v.Z} }

func Vec3iFromProto(v protocol.Vec3i) Vec3i { return Vec3i{X: v.X, Y: v.Y, Z: v.Z} }

func DeltaToProto(d Delta) protocol.WorldDelta {
	out := protocol.WorldDelta{
		Kind:   d.Kind,
		Entity: EntityToRef(d.Entity),
		Pos:    Vec3iToProto(d.Object.Pos),
		Yaw:    d.Object.Yaw,
	}
	if d.Kind == protocol.DeltaSpawn {
		out.ObjectKind = d.Object.Kind
	}
	return out
}

func DeltaFromProto(p protocol.WorldDelta) Delta {
	return Delta{
		Kind:   p.Kind,
		Entity: EntityFromRef(p.Entity),
		Object: Object{
			Kind: p.ObjectKind,
			Pos:  Vec3iFromProto(p.Pos),
			Yaw:  p.Yaw,
		},
	}
}
