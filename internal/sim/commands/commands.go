// Package commands is the editor-side command catalogue. Object commands are
// pending: they ship a request to the authority and become undoable once the
// matching confirmation arrives. Label commands are purely local and
// reversible right away.
package commands

import (
	"homestead.ai/internal/protocol"
	"homestead.ai/internal/sim/history"
)

// Requester ships a command request to the authority under a correlation id.
// The session implements it over the live transport.
type Requester interface {
	SendRequest(id history.CommandID, cmd protocol.CommandPayload)
}
