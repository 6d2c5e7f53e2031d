package commands

import (
	"homestead.ai/internal/protocol"
	"homestead.ai/internal/sim/history"
	"homestead.ai/internal/sim/world"
)

// BuyObject places a new object of the given kind. The authority decides the
// handle; until the confirmation arrives the reverse sell targets the
// placeholder.
type BuyObject struct {
	req Requester

	Kind string
	Pos  world.Vec3i
	Yaw  int
}

func NewBuyObject(req Requester, kind string, pos world.Vec3i, yaw int) *BuyObject {
	return &BuyObject{req: req, Kind: kind, Pos: pos, Yaw: yaw}
}

func (c *BuyObject) Apply(id history.CommandID, rec *history.Recorder, w *world.World) history.Confirmable {
	c.req.SendRequest(id, protocol.CommandPayload{
		Kind: protocol.CommandBuyObject,
		Buy: &protocol.BuyPayload{
			ObjectKind: c.Kind,
			Pos:        world.Vec3iToProto(c.Pos),
			Yaw:        c.Yaw,
		},
	})

	// The correct sell target is set after the confirmation.
	return &SellObject{req: c.req, Entity: world.Placeholder}
}

// Confirm is a no-op: a buy produced as the reverse of a sell already knows
// everything it needs.
func (c *BuyObject) Confirm(rec *history.Recorder, conf history.Confirmation) history.Pending {
	return c
}

func (c *BuyObject) MapEntities(m history.EntityMap) {}

// MoveObject repositions an existing object.
type MoveObject struct {
	req Requester

	Entity world.Entity
	Pos    world.Vec3i
	Yaw    int
}

func NewMoveObject(req Requester, entity world.Entity, pos world.Vec3i, yaw int) *MoveObject {
	return &MoveObject{req: req, Entity: entity, Pos: pos, Yaw: yaw}
}

func (c *MoveObject) Apply(id history.CommandID, rec *history.Recorder, w *world.World) history.Confirmable {
	reverse := &MoveObject{req: c.req, Entity: c.Entity}
	if obj, ok := w.Get(c.Entity); ok {
		reverse.Pos = obj.Pos
		reverse.Yaw = obj.Yaw
	}

	c.req.SendRequest(id, protocol.CommandPayload{
		Kind: protocol.CommandMoveObject,
		Move: &protocol.MovePayload{
			Entity: world.EntityToRef(c.Entity),
			Pos:    world.Vec3iToProto(c.Pos),
			Yaw:    c.Yaw,
		},
	})

	return reverse
}

func (c *MoveObject) Confirm(rec *history.Recorder, conf history.Confirmation) history.Pending {
	return c
}

func (c *MoveObject) MapEntities(m history.EntityMap) {
	c.Entity = m.Map(c.Entity)
}

// SellObject removes an existing object.
type SellObject struct {
	req Requester

	Entity world.Entity
}

func NewSellObject(req Requester, entity world.Entity) *SellObject {
	return &SellObject{req: req, Entity: entity}
}

func (c *SellObject) Apply(id history.CommandID, rec *history.Recorder, w *world.World) history.Confirmable {
	rec.Record(c.Entity)

	reverse := &BuyObject{req: c.req}
	if obj, ok := w.Get(c.Entity); ok {
		reverse.Kind = obj.Kind
		reverse.Pos = obj.Pos
		reverse.Yaw = obj.Yaw
	}

	c.req.SendRequest(id, protocol.CommandPayload{
		Kind: protocol.CommandSellObject,
		Sell: &protocol.SellPayload{Entity: world.EntityToRef(c.Entity)},
	})

	return reverse
}

// Confirm adopts the handle the authority assigned to the bought object; it
// becomes the sell target for undo. Recording it here is what repairs every
// other stored command that still references the stale handle.
func (c *SellObject) Confirm(rec *history.Recorder, conf history.Confirmation) history.Pending {
	c.Entity = conf.Entity
	rec.Record(c.Entity)
	return c
}

func (c *SellObject) MapEntities(m history.EntityMap) {
	c.Entity = m.Map(c.Entity)
}
