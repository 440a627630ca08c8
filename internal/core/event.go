package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventChatMessage delivers a chat message broadcast to a room.
	EventChatMessage EventKind = iota
	// EventPresence delivers the distinct connected-user count.
	EventPresence
	// EventJoinAck confirms a room join to the requesting connection.
	EventJoinAck
	// EventLeaveAck confirms a room leave to the requesting connection.
	EventLeaveAck
	// EventError notifies a client about a protocol error.
	EventError
)

// Ack status strings returned for join/leave requests.
const (
	StatusJoinAcknowledged  = "room join acknowledged"
	StatusLeaveAcknowledged = "room leave acknowledged"
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind           EventKind
	Room           string
	DeliveryID     string
	Message        *Message
	ConnectedUsers int
	Status         string
	Error          *CoreError
}
