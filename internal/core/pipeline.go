package core

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkorobov/roomcast-server/internal/store"
)

// Pipeline persists inbound messages and hands them to the delivery
// protocol. Persistence is authoritative: the caller sees success once the
// insert commits, and a failed broadcast never rolls it back.
type Pipeline struct {
	store     store.MessageStore
	deliverer Deliverer
	log       *zerolog.Logger
}

// NewPipeline creates a message pipeline.
func NewPipeline(st store.MessageStore, d Deliverer, logger *zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:     st,
		deliverer: d,
		log:       logger,
	}
}

// Submit validates and durably persists a message, then broadcasts it to
// the room channel in the background. Returns the stored message with its
// author denormalized.
func (p *Pipeline) Submit(ctx context.Context, input store.MessageInput) (*store.Message, error) {
	if strings.TrimSpace(input.Content) == "" || input.UserID == "" || input.RoomID == "" {
		return nil, ErrInvalidMessage
	}

	msg, err := p.store.InsertMessage(ctx, input)
	if err != nil {
		return nil, err
	}

	go p.broadcast(msg)

	return msg, nil
}

// broadcast runs the delivery protocol for a stored message. Failure is a
// warning, observable independently of the submit result; the message stays
// persisted regardless.
func (p *Pipeline) broadcast(msg *store.Message) {
	deadline := DefaultMaxAttempts * DefaultRetryInterval
	if b, ok := p.deliverer.(*Broadcaster); ok {
		deadline = b.Deadline()
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline+time.Second)
	defer cancel()

	if err := p.deliverer.Deliver(ctx, EventNameChatMessage, MessageFromStore(msg)); err != nil {
		p.log.Warn().
			Err(err).
			Str("event", EventNameChatMessage).
			Str("room_id", msg.RoomID).
			Str("message_id", msg.ID).
			Msg("message delivery failed")
	}
}

// MessageFromStore converts a persisted message into its broadcast form.
func MessageFromStore(msg *store.Message) *Message {
	roles := make([]string, 0, len(msg.User.Roles))
	for _, r := range msg.User.Roles {
		roles = append(roles, r.Name)
	}
	return &Message{
		ID:      msg.ID,
		Content: msg.Content,
		Created: msg.Created,
		RoomID:  msg.RoomID,
		User: UserView{
			ID:    msg.User.ID,
			Name:  msg.User.Name,
			Email: msg.User.Email,
			Roles: roles,
		},
	}
}
