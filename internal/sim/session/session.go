// Package session is the editor-side half of the command protocol: a world
// replica, the undo/redo history buffer, and a façade whose calls are
// deferred onto a single loop goroutine.
package session

import (
	"log"

	"homestead.ai/internal/protocol"
	"homestead.ai/internal/sim/history"
	"homestead.ai/internal/sim/world"
)

// Transport ships request messages to the authority. Implemented by the ws
// client; tests use an in-process loopback.
type Transport interface {
	SendRequest(req protocol.RequestMsg) error
}

type opKind int

const (
	opPush opKind = iota + 1
	opPushPending
	opUndo
	opRedo
	opInspect
)

// op is one deferred façade call. Ops run in submission order at the tick
// boundary, so the buffer is never observed from two call sites at once.
type op struct {
	kind       opKind
	reversible history.Reversible
	pending    history.Pending
	id         history.CommandID
	inspect    func(*world.World)
}

type Session struct {
	world  *world.World
	buffer *history.Buffer
	ids    *history.CommandIDs
	out    Transport
	log    *log.Logger

	tickRateHz int

	ops     chan op
	confirm chan history.Confirmation
	deltas  chan []world.Delta
	reset   chan struct{}
	stop    chan struct{}
}

func New(out Transport, logger *log.Logger, tickRateHz int) *Session {
	if tickRateHz <= 0 {
		tickRateHz = 10
	}
	ids := &history.CommandIDs{}
	return &Session{
		world:      world.New(),
		buffer:     history.NewBuffer(ids, logger),
		ids:        ids,
		out:        out,
		log:        logger,
		tickRateHz: tickRateHz,
		ops:        make(chan op, 64),
		confirm:    make(chan history.Confirmation, 64),
		deltas:     make(chan []world.Delta, 64),
		reset:      make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
}

// Push schedules a reversible command. The effect is visible after the next
// tick.
func (s *Session) Push(cmd history.Reversible) {
	s.ops <- op{kind: opPush, reversible: cmd}
}

// PushPending schedules a pending command and returns its correlation id
// right away, before the command actually runs, so the caller can match the
// eventual confirmation against it.
func (s *Session) PushPending(cmd history.Pending) history.CommandID {
	id := s.ids.Next()
	s.ops <- op{kind: opPushPending, pending: cmd, id: id}
	return id
}

// Undo reverses the last executed command if one exists.
func (s *Session) Undo() {
	s.ops <- op{kind: opUndo}
}

// Redo re-applies the last undone command if one exists.
func (s *Session) Redo() {
	s.ops <- op{kind: opRedo}
}

// Do runs f on the loop goroutine with the replica world. Read-only use.
func (s *Session) Do(f func(*world.World)) {
	s.ops <- op{kind: opInspect, inspect: f}
}

// HandleConfirm feeds one authority confirmation into the session. Safe from
// the transport reader goroutine.
func (s *Session) HandleConfirm(conf history.Confirmation) {
	s.confirm <- conf
}

// HandleDeltas feeds one tick's replication deltas into the session. Safe
// from the transport reader goroutine.
func (s *Session) HandleDeltas(deltas []world.Delta) {
	if len(deltas) == 0 {
		return
	}
	s.deltas <- deltas
}

// Clear schedules a history wipe. Invoked when the session ends (BYE or
// disconnect); both stacks and the unconfirmed list go away wholesale.
func (s *Session) Clear() {
	select {
	case s.reset <- struct{}{}:
	default:
	}
}

func (s *Session) Stop() { close(s.stop) }

// SendRequest implements the command catalogue's Requester over the live
// transport. Called by pending commands while they apply on the loop
// goroutine.
func (s *Session) SendRequest(id history.CommandID, cmd protocol.CommandPayload) {
	req := protocol.RequestMsg{
		Type:            protocol.TypeRequest,
		ProtocolVersion: protocol.Version,
		ID:              uint8(id),
		Command:         cmd,
	}
	if err := s.out.SendRequest(req); err != nil {
		s.log.Printf("send request id=%d: %v", id, err)
	}
}
