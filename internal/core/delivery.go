package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Delivery retry defaults, matching the wire contract: three attempts spaced
// 1500 ms apart.
const (
	DefaultRetryInterval = 1500 * time.Millisecond
	DefaultMaxAttempts   = 3
)

// ackRegistry tracks in-flight broadcast rounds awaiting acknowledgment.
type ackRegistry struct {
	mu      sync.Mutex
	pending map[string]chan struct{}
}

func newAckRegistry() *ackRegistry {
	return &ackRegistry{pending: make(map[string]chan struct{})}
}

// arm registers a delivery id and returns the channel signalled on the
// first acknowledgment.
func (r *ackRegistry) arm(id string) <-chan struct{} {
	ch := make(chan struct{}, 1)
	r.mu.Lock()
	r.pending[id] = ch
	r.mu.Unlock()
	return ch
}

func (r *ackRegistry) disarm(id string) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// signal acknowledges a delivery. Only the first ack per round is observed;
// later ones are dropped. Returns false for unknown or finished deliveries.
func (r *ackRegistry) signal(id string) bool {
	r.mu.Lock()
	ch, ok := r.pending[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- struct{}{}:
	default:
	}
	return true
}

// Deliverer broadcasts one message to a room with acknowledgment tracking.
type Deliverer interface {
	Deliver(ctx context.Context, event string, msg *Message) error
}

// Broadcaster implements at-least-once room delivery: each attempt fans the
// event out to the room channel's current members and waits for a single
// acknowledgment before the retry interval elapses. Membership is re-sampled
// on every attempt, so a connection that joins mid-retry still receives the
// broadcast.
type Broadcaster struct {
	hub           *Hub
	retryInterval time.Duration
	maxAttempts   int
	log           *zerolog.Logger
}

// NewBroadcaster builds a broadcaster over the hub's room channels.
// Non-positive parameters fall back to the defaults.
func NewBroadcaster(hub *Hub, retryInterval time.Duration, maxAttempts int, logger *zerolog.Logger) *Broadcaster {
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Broadcaster{
		hub:           hub,
		retryInterval: retryInterval,
		maxAttempts:   maxAttempts,
		log:           logger,
	}
}

// Deadline returns how long a delivery may run before it is resolved either
// way: one retry interval per attempt.
func (b *Broadcaster) Deadline() time.Duration {
	return time.Duration(b.maxAttempts) * b.retryInterval
}

// Deliver broadcasts msg to its room and blocks until one member
// acknowledges, the attempt bound is exhausted, or ctx is cancelled. One
// acknowledgment from any member resolves the whole broadcast; this is a
// room-liveness signal, not a per-recipient receipt.
func (b *Broadcaster) Deliver(ctx context.Context, event string, msg *Message) error {
	deliveryID := uuid.NewString()
	ackCh := b.hub.acks.arm(deliveryID)
	defer b.hub.acks.disarm(deliveryID)

	ev := &Event{
		Kind:       EventChatMessage,
		Room:       msg.RoomID,
		DeliveryID: deliveryID,
		Message:    msg,
	}

	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		members := b.hub.Members(msg.RoomID)
		for _, c := range members {
			c.send(ev)
		}

		timer := time.NewTimer(b.retryInterval)
		select {
		case <-ackCh:
			timer.Stop()
			b.log.Debug().
				Str("event", event).
				Str("room_id", msg.RoomID).
				Int("attempt", attempt).
				Msg("broadcast acknowledged")
			return nil
		case <-timer.C:
			if attempt < b.maxAttempts {
				b.log.Debug().
					Str("event", event).
					Str("room_id", msg.RoomID).
					Int("attempt", attempt).
					Msg("no acknowledgment, retrying")
			}
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return &DeliveryError{Event: event, Room: msg.RoomID, Attempts: b.maxAttempts}
}
