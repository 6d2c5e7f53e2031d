package commands

import (
	"homestead.ai/internal/sim/history"
	"homestead.ai/internal/sim/world"
)

// LabelObject renames an object. Labels are editor-local annotations, so the
// command reverses without an authority round trip.
type LabelObject struct {
	Entity world.Entity
	Label  string
}

func NewLabelObject(entity world.Entity, label string) *LabelObject {
	return &LabelObject{Entity: entity, Label: label}
}

func (c *LabelObject) Apply(rec *history.Recorder, w *world.World) history.Reversible {
	reverse := &LabelObject{Entity: c.Entity}
	if obj, ok := w.Get(c.Entity); ok {
		reverse.Label = obj.Label
		obj.Label = c.Label
	}
	return reverse
}

func (c *LabelObject) MapEntities(m history.EntityMap) {
	c.Entity = m.Map(c.Entity)
}
