package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandAuthenticate binds a user identity to the connection.
	CommandAuthenticate CommandKind = iota
	// CommandJoinRoom subscribes the connection to a room channel.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the connection from a room channel.
	CommandLeaveRoom
	// CommandAck acknowledges receipt of a broadcast round.
	CommandAck
)

// Command represents an action requested by a client connection.
type Command struct {
	Kind       CommandKind
	Room       string
	UserID     string
	DeliveryID string
}
