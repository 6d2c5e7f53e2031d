package history

import (
	"log"

	"homestead.ai/internal/sim/world"
)

// Stack selects where an applied command's record lands.
type Stack int

const (
	// StackUndoNew pushes to the undo stack as a brand-new command,
	// invalidating the redo branch.
	StackUndoNew Stack = iota
	// StackUndo pushes to the undo stack without touching redo. Used when the
	// record is produced by a redo.
	StackUndo
	// StackRedo pushes to the redo stack. Used when the record is produced by
	// an undo.
	StackRedo
)

func (s Stack) String() string {
	switch s {
	case StackUndoNew:
		return "undo(new)"
	case StackUndo:
		return "undo"
	case StackRedo:
		return "redo"
	}
	return "unknown"
}

// Undo history is capped; the oldest record is evicted past this.
const undoCap = 25

// record is a stored reverse command plus the handles captured across its
// most recent application. Exactly one of reversible/pending is set.
type record struct {
	reversible Reversible
	pending    Pending
	entities   []world.Entity
}

func (r *record) mapEntities(m EntityMap) {
	if r.reversible != nil {
		r.reversible.MapEntities(m)
	} else {
		r.pending.MapEntities(m)
	}
}

// unconfirmedCommand is an optimistically-applied command waiting for the
// authority.
type unconfirmedCommand struct {
	id CommandID
	// Destination stack once confirmed.
	stack Stack
	// Handles captured when the command executed.
	entities []world.Entity
	command  Confirmable
}

// Buffer owns the undo stack, redo stack and unconfirmed list for one editor
// session. It must only be touched from the session loop goroutine; the
// session façade defers all mutation there.
type Buffer struct {
	undo        []record
	redo        []record
	mapper      EntityMap
	unconfirmed []unconfirmedCommand

	ids *CommandIDs
	log *log.Logger
}

// NewBuffer creates an empty buffer. ids supplies fresh correlation ids when
// a pending-typed record is redone. logger may be nil.
func NewBuffer(ids *CommandIDs, logger *log.Logger) *Buffer {
	return &Buffer{
		mapper: make(EntityMap),
		ids:    ids,
		log:    logger,
	}
}

func (b *Buffer) debugf(format string, args ...any) {
	if b.log != nil {
		b.log.Printf(format, args...)
	}
}

// ApplyReverse pops the stack opposite to dst and re-applies the record for
// dst. An empty stack is a no-op. This is the working half of both undo
// (dst = StackRedo) and redo (dst = StackUndo).
func (b *Buffer) ApplyReverse(dst Stack, w *world.World) {
	var rec record
	var ok bool
	if dst == StackRedo {
		rec, ok = popBack(&b.undo)
	} else {
		rec, ok = popBack(&b.redo)
	}
	if !ok {
		return
	}

	if rec.reversible != nil {
		b.Apply(rec.reversible, rec.entities, dst, w)
	} else {
		// Pending commands re-enter the unconfirmed state on every redo,
		// under a freshly-minted id.
		b.ApplyPending(b.ids.Next(), rec.pending, rec.entities, dst, w)
	}
}

// Apply runs a reversible command against the world and pushes its reverse
// form to dst. entities is the handle list from the command's previous
// application, or nil for a first application.
func (b *Buffer) Apply(cmd Reversible, entities []world.Entity, dst Stack, w *world.World) {
	b.debugf("applying command for %s", dst)

	var reverse Reversible
	b.runRecorded(&entities, func(rec *Recorder) {
		reverse = cmd.Apply(rec, w)
	})
	b.push(record{reversible: reverse, entities: entities}, dst)
}

// ApplyPending runs a pending command against the world and parks the result
// on the unconfirmed list until Confirm matches its id.
func (b *Buffer) ApplyPending(id CommandID, cmd Pending, entities []world.Entity, dst Stack, w *world.World) {
	b.debugf("applying pending command id=%d for %s", id, dst)

	var waiting Confirmable
	b.runRecorded(&entities, func(rec *Recorder) {
		waiting = cmd.Apply(id, rec, w)
	})
	b.unconfirmed = append(b.unconfirmed, unconfirmedCommand{
		id:       id,
		stack:    dst,
		entities: entities,
		command:  waiting,
	})
}

// Confirm finalizes the unconfirmed command matching conf's id and pushes the
// resulting record to the stack recorded at submission. Unknown ids are
// silently discarded: the entry may already have been pruned by a redo-branch
// invalidation or a session reset.
func (b *Buffer) Confirm(conf Confirmation) {
	idx := -1
	for i := range b.unconfirmed {
		if b.unconfirmed[i].id == conf.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.debugf("ignoring confirmation id=%d", conf.ID)
		return
	}

	b.debugf("confirming command id=%d", conf.ID)
	u := b.unconfirmed[idx]
	last := len(b.unconfirmed) - 1
	b.unconfirmed[idx] = b.unconfirmed[last]
	b.unconfirmed[last] = unconfirmedCommand{}
	b.unconfirmed = b.unconfirmed[:last]

	var pending Pending
	b.runRecorded(&u.entities, func(rec *Recorder) {
		pending = u.command.Confirm(rec, conf)
	})
	b.push(record{pending: pending, entities: u.entities}, u.stack)
}

func (b *Buffer) push(rec record, dst Stack) {
	if dst == StackRedo {
		b.redo = append(b.redo, rec)
		return
	}

	b.undo = append(b.undo, rec)
	if len(b.undo) > undoCap {
		copy(b.undo, b.undo[1:])
		b.undo[undoCap] = record{}
		b.undo = b.undo[:undoCap]
	}

	if dst == StackUndoNew {
		// A brand-new command invalidates the redo branch entirely,
		// including unconfirmed commands that would land there.
		b.redo = nil
		kept := b.unconfirmed[:0]
		for _, u := range b.unconfirmed {
			if u.stack != StackRedo {
				kept = append(kept, u)
			}
		}
		b.unconfirmed = kept
	}
}

// runRecorded executes f with a fresh recorder over entities. Any handle
// drift f reports is fanned out to every stored record in both stacks and to
// the unconfirmed list, then the scratch table is discarded. The record being
// produced by f is excluded: it is not pushed yet.
func (b *Buffer) runRecorded(entities *[]world.Entity, f func(*Recorder)) {
	f(NewRecorder(entities, b.mapper))

	if len(b.mapper) == 0 {
		return
	}
	for i := range b.undo {
		b.undo[i].mapEntities(b.mapper)
	}
	for i := range b.redo {
		b.redo[i].mapEntities(b.mapper)
	}
	for i := range b.unconfirmed {
		b.unconfirmed[i].command.MapEntities(b.mapper)
	}
	b.debugf("updated %d entities inside commands", len(b.mapper))
	clear(b.mapper)
}

// Clear wipes both stacks and the unconfirmed list. Called when the session
// ends; nothing carries over.
func (b *Buffer) Clear() {
	b.debugf("clearing history buffer")
	b.undo = nil
	b.redo = nil
	b.unconfirmed = nil
}

func (b *Buffer) UndoLen() int        { return len(b.undo) }
func (b *Buffer) RedoLen() int        { return len(b.redo) }
func (b *Buffer) UnconfirmedLen() int { return len(b.unconfirmed) }

func popBack(s *[]record) (record, bool) {
	n := len(*s)
	if n == 0 {
		return record{}, false
	}
	rec := (*s)[n-1]
	(*s)[n-1] = record{}
	*s = (*s)[:n-1]
	return rec, true
}
