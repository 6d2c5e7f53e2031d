package history

import "homestead.ai/internal/sim/world"

// Recorder captures the handles that make up one command's identity
// footprint, in record order.
//
// Each command execution gets a fresh recorder over the command's previously
// captured handle list. The cursor starts at zero; recording past the end
// appends, recording over an existing index with a different handle both
// overwrites in place and notes old->new in the shared remap table. The list
// never shrinks or reorders.
type Recorder struct {
	index    int
	entities *[]world.Entity
	mapper   EntityMap
}

// NewRecorder builds a recorder cursored at the start of entities. Records
// that replace an existing handle are noted in mapper.
func NewRecorder(entities *[]world.Entity, mapper EntityMap) *Recorder {
	return &Recorder{entities: entities, mapper: mapper}
}

// Record notes a command entity that may change across undo/redo cycles.
func (r *Recorder) Record(e world.Entity) {
	if r.index < len(*r.entities) {
		if old := (*r.entities)[r.index]; old != e {
			r.mapper[old] = e
			(*r.entities)[r.index] = e
		}
	} else {
		*r.entities = append(*r.entities, e)
	}
	r.index++
}
