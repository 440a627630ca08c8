package core

import (
	"errors"
	"fmt"
)

// Error codes for protocol-level errors sent to clients.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
)

// ErrInvalidMessage is returned by the pipeline when a submission is missing
// content, user id or room id.
var ErrInvalidMessage = errors.New("content, userId and roomId are required")

// CoreError wraps a code and human-readable message for the wire.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// DeliveryError reports that a room broadcast exhausted its retries without
// a single acknowledgment.
type DeliveryError struct {
	Event    string
	Room     string
	Attempts int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver event %q to room %q after %d attempts", e.Event, e.Room, e.Attempts)
}
