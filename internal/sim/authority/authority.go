// Package authority is the server side of the command protocol: it owns the
// authoritative world, applies editor requests, and answers each request with
// a confirmation carrying the handle the editor could not know.
package authority

import (
	"log"

	"homestead.ai/internal/protocol"
	"homestead.ai/internal/sim/world"
)

type Authority struct {
	world *world.World
	log   *log.Logger

	audit AuditSink
}

// AuditSink receives one entry per handled request. Implemented in
// internal/persistence; may be absent.
type AuditSink interface {
	WriteAudit(e AuditEntry) error
}

type AuditEntry struct {
	Tick      uint64 `json:"t"`
	SessionID string `json:"session_id"`
	CommandID uint8  `json:"command_id"`
	Kind      string `json:"kind"`
	Entity    string `json:"entity,omitempty"`
	OK        bool   `json:"ok"`
	Code      string `json:"code,omitempty"`
}

func New(w *world.World, logger *log.Logger) *Authority {
	return &Authority{world: w, log: logger}
}

func (a *Authority) SetAuditSink(s AuditSink) { a.audit = s }

func (a *Authority) World() *world.World { return a.world }

// HandleRequest applies one editor request against the authoritative world.
// Every request gets a confirmation: failures carry ok=false plus a code, so
// the id is consumed either way.
func (a *Authority) HandleRequest(sessionID string, tick uint64, req protocol.RequestMsg) protocol.ConfirmMsg {
	confirm := protocol.ConfirmMsg{
		Type:            protocol.TypeConfirm,
		ProtocolVersion: protocol.Version,
		ID:              req.ID,
		OK:              true,
	}

	switch req.Command.Kind {
	case protocol.CommandBuyObject:
		if req.Command.Buy == nil || req.Command.Buy.ObjectKind == "" {
			confirm.OK = false
			confirm.Code = protocol.ErrBadRequest
			break
		}
		e := a.world.Spawn(world.Object{
			Kind: req.Command.Buy.ObjectKind,
			Pos:  world.Vec3iFromProto(req.Command.Buy.Pos),
			Yaw:  req.Command.Buy.Yaw,
		})
		confirm.Entity = world.EntityToRef(e)

	case protocol.CommandMoveObject:
		if req.Command.Move == nil {
			confirm.OK = false
			confirm.Code = protocol.ErrBadRequest
			break
		}
		e := world.EntityFromRef(req.Command.Move.Entity)
		if !a.world.Move(e, world.Vec3iFromProto(req.Command.Move.Pos), req.Command.Move.Yaw) {
			confirm.OK = false
			confirm.Code = protocol.ErrInvalidTarget
		}

	case protocol.CommandSellObject:
		if req.Command.Sell == nil {
			confirm.OK = false
			confirm.Code = protocol.ErrBadRequest
			break
		}
		e := world.EntityFromRef(req.Command.Sell.Entity)
		if !a.world.Despawn(e) {
			confirm.OK = false
			confirm.Code = protocol.ErrInvalidTarget
		}

	default:
		confirm.OK = false
		confirm.Code = protocol.ErrBadRequest
	}

	if !confirm.OK {
		a.log.Printf("rejecting %s id=%d from %s: %s", req.Command.Kind, req.ID, sessionID, confirm.Code)
	}
	if a.audit != nil {
		entry := AuditEntry{
			Tick:      tick,
			SessionID: sessionID,
			CommandID: req.ID,
			Kind:      req.Command.Kind,
			OK:        confirm.OK,
			Code:      confirm.Code,
		}
		if !confirm.Entity.IsZero() {
			entry.Entity = world.EntityFromRef(confirm.Entity).String()
		}
		if err := a.audit.WriteAudit(entry); err != nil {
			a.log.Printf("audit write: %v", err)
		}
	}
	return confirm
}
