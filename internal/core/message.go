package core

import "time"

// Event names on the wire.
const (
	// EventNameChatMessage is the room broadcast carrying a persisted message.
	EventNameChatMessage = "chat message"
	// EventNamePresence carries the distinct connected-user count.
	EventNamePresence = "user-connection-update"
)

// UserView is the author of a message as broadcast to clients.
type UserView struct {
	ID    string
	Name  string
	Email string
	Roles []string
}

// Message is the domain model for a broadcast chat message. The author is
// denormalized at persistence time; the core never looks users up.
type Message struct {
	ID      string
	Content string
	Created time.Time
	RoomID  string
	User    UserView
}
