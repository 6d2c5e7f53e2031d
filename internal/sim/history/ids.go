package history

import "sync/atomic"

// CommandID links a locally-submitted pending command to its eventual
// confirmation. IDs are unique only among currently outstanding commands.
type CommandID uint8

// CommandIDs generates ids for pending commands.
//
// A wrapping uint8 is enough because realistically an editor has only a few
// unconfirmed commands at a time.
//
// The counter is atomic so that submission sites can allocate ids without
// waiting for the session loop to run.
type CommandIDs struct {
	n atomic.Uint32
}

// Next generates a new id for a command. Wraps silently on overflow.
func (c *CommandIDs) Next() CommandID {
	return CommandID(c.n.Add(1) - 1)
}
