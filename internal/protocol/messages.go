package protocol

// EntityRef is the wire form of an object handle: an arena index plus a
// generation counter. A zero ref means "no entity".
type EntityRef struct {
	Index uint32 `json:"i"`
	Gen   uint32 `json:"g"`
}

func (r EntityRef) IsZero() bool { return r == EntityRef{} }

type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// HELLO (editor -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	EditorName      string `json:"editor_name"`
}

// WELCOME (server -> editor)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	Seed       int64 `json:"seed"`
}

// REQUEST (editor -> server): a pending command with its correlation id.
// The id is scoped to the issuing session; the server echoes it back in the
// matching CONFIRM.
type RequestMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	ID              uint8          `json:"id"`
	Command         CommandPayload `json:"command"`
}

// Command kinds carried by RequestMsg.
const (
	CommandBuyObject  = "BUY_OBJECT"
	CommandMoveObject = "MOVE_OBJECT"
	CommandSellObject = "SELL_OBJECT"
)

// CommandPayload is a tagged union; exactly one branch matching Kind is set.
type CommandPayload struct {
	Kind string       `json:"kind"`
	Buy  *BuyPayload  `json:"buy,omitempty"`
	Move *MovePayload `json:"move,omitempty"`
	Sell *SellPayload `json:"sell,omitempty"`
}

type BuyPayload struct {
	ObjectKind string `json:"object_kind"`
	Pos        Vec3i  `json:"pos"`
	Yaw        int    `json:"yaw"`
}

type MovePayload struct {
	Entity EntityRef `json:"entity"`
	Pos    Vec3i     `json:"pos"`
	Yaw    int       `json:"yaw"`
}

type SellPayload struct {
	Entity EntityRef `json:"entity"`
}

// CONFIRM (server -> editor): the outcome of one REQUEST. Entity is set when
// the command created an object the editor could not know the handle of.
type ConfirmMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	ID              uint8     `json:"id"`
	OK              bool      `json:"ok"`
	Code            string    `json:"code,omitempty"`
	Entity          EntityRef `json:"entity"`
}

// EVENT (server -> editor): one tick's worth of replication deltas, broadcast
// to every connected session.
type EventMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	Deltas          []WorldDelta `json:"deltas"`
}

// Delta kinds carried by EventMsg.
const (
	DeltaSpawn   = "SPAWN"
	DeltaMove    = "MOVE"
	DeltaDespawn = "DESPAWN"
)

type WorldDelta struct {
	Kind       string    `json:"kind"`
	Entity     EntityRef `json:"entity"`
	ObjectKind string    `json:"object_kind,omitempty"`
	Pos        Vec3i     `json:"pos"`
	Yaw        int       `json:"yaw"`
}

// BYE (server -> editor): session is over; the editor must drop all local
// state, including its command history.
type ByeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Reason          string `json:"reason,omitempty"`
}
