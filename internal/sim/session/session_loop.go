package session

import (
	"context"
	"time"

	"homestead.ai/internal/sim/history"
	"homestead.ai/internal/sim/world"
)

// Run drives the session loop. Everything buffered since the previous tick is
// drained at the tick boundary: replication deltas first, then confirmations,
// then façade ops in submission order.
func (s *Session) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.tickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingOps []op
	var pendingConfirms []history.Confirmation
	var pendingDeltas []world.Delta

	for {
		select {
		case <-ctx.Done():
			s.buffer.Clear()
			return ctx.Err()
		case <-s.stop:
			s.buffer.Clear()
			return nil
		case <-s.reset:
			pendingOps = pendingOps[:0]
			pendingConfirms = pendingConfirms[:0]
			pendingDeltas = pendingDeltas[:0]
			s.buffer.Clear()
		case o := <-s.ops:
			pendingOps = append(pendingOps, o)
		case conf := <-s.confirm:
			pendingConfirms = append(pendingConfirms, conf)
		case ds := <-s.deltas:
			pendingDeltas = append(pendingDeltas, ds...)
		case <-ticker.C:
			s.step(pendingDeltas, pendingConfirms, pendingOps)
			pendingOps = pendingOps[:0]
			pendingConfirms = pendingConfirms[:0]
			pendingDeltas = pendingDeltas[:0]
		}
	}
}

// step advances the session by one tick. Split out so tests can drive the
// loop deterministically.
func (s *Session) step(deltas []world.Delta, confirms []history.Confirmation, ops []op) {
	for _, d := range deltas {
		s.world.ApplyDelta(d)
	}
	for _, conf := range confirms {
		s.buffer.Confirm(conf)
	}
	for _, o := range ops {
		switch o.kind {
		case opPush:
			s.buffer.Apply(o.reversible, nil, history.StackUndoNew, s.world)
		case opPushPending:
			s.buffer.ApplyPending(o.id, o.pending, nil, history.StackUndoNew, s.world)
		case opUndo:
			s.buffer.ApplyReverse(history.StackRedo, s.world)
		case opRedo:
			s.buffer.ApplyReverse(history.StackUndo, s.world)
		case opInspect:
			o.inspect(s.world)
		}
	}
}
