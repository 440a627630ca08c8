package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeAuthenticate = "authenticate"
	InboundTypeJoin         = "join"
	InboundTypeLeave        = "leave"
	InboundTypeAck          = "ack"

	OutboundTypeEvent = "event"
	OutboundTypeAck   = "ack"
	OutboundTypeError = "error"
)

// AuthenticateData binds a user identity to the connection.
type AuthenticateData struct {
	UserID string `json:"user_id"`
}

// RoomData requests to join or leave a specific room.
type RoomData struct {
	Room string `json:"room"`
}

// AckData acknowledges one broadcast round.
type AckData struct {
	DeliveryID string `json:"delivery_id"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserPayload is the denormalized author inside a chat message event.
type UserPayload struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// MessagePayload is the body of a "chat message" event.
type MessagePayload struct {
	ID      string      `json:"id"`
	Content string      `json:"content"`
	Created string      `json:"created"`
	RoomID  string      `json:"roomId"`
	User    UserPayload `json:"user"`
}

// ChatMessageData wraps a broadcast message with its delivery id, which the
// client echoes back in an ack frame.
type ChatMessageData struct {
	DeliveryID string         `json:"delivery_id"`
	Message    MessagePayload `json:"message"`
}

// EventResponse carries the status string for join/leave acknowledgments.
type EventResponse struct {
	Status string `json:"status"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
