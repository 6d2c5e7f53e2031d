package world

import "fmt"

// Entity is an opaque handle to a live world object: an arena index tagged
// with a generation counter. Handles are comparable and copyable; a despawned
// slot that gets reused produces a handle with a bumped generation, so a stale
// handle never aliases the new occupant.
//
// The zero value is the placeholder handle and never refers to a live object.
type Entity struct {
	Index uint32
	Gen   uint32
}

// Placeholder is a handle that refers to nothing. Commands use it when the
// real handle will only be known after server confirmation.
var Placeholder = Entity{}

func (e Entity) IsPlaceholder() bool { return e == Placeholder }

func (e Entity) String() string {
	if e.IsPlaceholder() {
		return "E(none)"
	}
	return fmt.Sprintf("E%dv%d", e.Index, e.Gen)
}
