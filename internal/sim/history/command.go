package history

import "homestead.ai/internal/sim/world"

// Confirmation is the authority's answer to one pending command.
type Confirmation struct {
	// ID of the confirmed command.
	ID CommandID

	// Entity associated with the command, if the authority created one.
	// Needed for commands whose reverse targets an object the editor could
	// not know the handle of at submission time.
	Entity world.Entity
}

// EntityMap is a stale->current handle table built while one command
// (re-)applies and fanned out to every other stored command.
type EntityMap map[world.Entity]world.Entity

// Map returns the current handle for e, or e itself if it was not remapped.
func (m EntityMap) Map(e world.Entity) world.Entity {
	if mapped, ok := m[e]; ok {
		return mapped
	}
	return e
}

// Remappable rewrites internal handle references in place. Every stored
// reverse command must support it so that handle drift discovered during one
// command's re-application can be repaired history-wide.
type Remappable interface {
	MapEntities(m EntityMap)
}

// Reversible is a command that can be applied and later reversed locally,
// without involving the authority.
//
// Apply mutates the world and returns the command's reverse form.
type Reversible interface {
	Remappable
	Apply(rec *Recorder, w *world.World) Reversible
}

// Pending is like Reversible, but the command also requires confirmation from
// the authority before it becomes undoable.
//
// Apply runs the optimistic local part, ships the request under id, and
// returns the form that waits for the confirmation.
type Pending interface {
	Remappable
	Apply(id CommandID, rec *Recorder, w *world.World) Confirmable
}

// Confirmable is a command waiting for the authority's confirmation.
//
// Confirm turns it into the undoable form, filling in whatever the optimistic
// guess lacked (typically the authority-assigned entity). Unconfirmed
// commands still hold handles, so they take part in remap fan-out like the
// stacked records do.
type Confirmable interface {
	Remappable
	Confirm(rec *Recorder, conf Confirmation) Pending
}
