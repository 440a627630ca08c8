package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Hub owns the connection registry and the room channels. All of its maps
// are mutated by the single Run goroutine; other goroutines talk to it over
// channels. The presence counter and the ack registry carry their own locks
// so reads from HTTP handlers and delivery goroutines never touch the actor.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	members    chan membersRequest
	stopped    chan struct{}

	presence *Presence
	acks     *ackRegistry
	log      *zerolog.Logger

	clients map[string]*Client
	rooms   map[string]*RoomChannel
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

type membersRequest struct {
	room  string
	reply chan []*Client
}

// NewHub creates a new hub instance.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 64),
		members:    make(chan membersRequest),
		stopped:    make(chan struct{}),
		presence:   NewPresence(),
		acks:       newAckRegistry(),
		log:        logger,
		clients:    make(map[string]*Client),
		rooms:      make(map[string]*RoomChannel),
	}
}

// Run processes registrations and client commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.dropClient(c)
		case req := <-h.members:
			req.reply <- h.memberSnapshot(req.room)
		case cc := <-h.commands:
			h.handle(cc.client, cc.cmd)
		}
	}
}

// RegisterClient adds a new connection to the registry.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

// UnregisterClient removes a connection: it leaves every room channel, is
// dropped from the registry, and releases its presence slot. Unknown
// clients are a no-op; disconnects race with everything else.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Members returns a point-in-time snapshot of a room channel's connections.
func (h *Hub) Members(room string) []*Client {
	req := membersRequest{room: room, reply: make(chan []*Client, 1)}
	select {
	case h.members <- req:
		return <-req.reply
	case <-h.stopped:
		return nil
	}
}

// ConnectedUsers returns the current distinct connected-user count.
func (h *Hub) ConnectedUsers() int {
	return h.presence.Count()
}

// Acknowledge marks a broadcast round as received. Returns false if no
// delivery is waiting on the id.
func (h *Hub) Acknowledge(deliveryID string) bool {
	return h.acks.signal(deliveryID)
}

func (h *Hub) addClient(c *Client) {
	if _, exists := h.clients[c.ID]; exists {
		return
	}
	h.clients[c.ID] = c
	go h.pump(c)
}

// pump forwards one client's commands into the hub until the client is
// dropped.
func (h *Hub) pump(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-h.stopped:
				return
			}
		case <-c.done:
			return
		case <-h.stopped:
			return
		}
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	if _, known := h.clients[c.ID]; !known {
		// Connection already cleaned up; commands racing a disconnect are
		// benign no-ops.
		return
	}

	switch cmd.Kind {
	case CommandAuthenticate:
		h.bindUser(c, cmd.UserID)
	case CommandJoinRoom:
		h.joinRoom(c, cmd.Room)
	case CommandLeaveRoom:
		h.leaveRoom(c, cmd.Room)
	case CommandAck:
		h.acks.signal(cmd.DeliveryID)
	}
}

// bindUser attaches a user identity to the connection. Re-authenticating
// replaces the identity.
func (h *Hub) bindUser(c *Client, userID string) {
	if userID == "" || c.UserID == userID {
		return
	}
	if c.UserID != "" {
		if count, transitioned := h.presence.Disconnect(c.UserID); transitioned {
			h.broadcastPresence(count)
		}
	}
	c.UserID = userID
	count, transitioned := h.presence.Connect(userID)
	h.log.Debug().Str("conn_id", c.ID).Str("user_id", userID).Msg("connection authenticated")
	if transitioned {
		h.broadcastPresence(count)
	}
}

func (h *Hub) joinRoom(c *Client, room string) {
	if room == "" {
		c.send(&Event{Kind: EventError, Error: &CoreError{Code: ErrCodeBadRequest, Message: "room is required"}})
		return
	}
	ch, ok := h.rooms[room]
	if !ok {
		ch = NewRoomChannel(room)
		h.rooms[room] = ch
	}
	ch.AddClient(c)
	c.Rooms[room] = struct{}{}
	c.send(&Event{Kind: EventJoinAck, Room: room, Status: StatusJoinAcknowledged})
}

// leaveRoom acknowledges even when the connection was not a member; leave
// and disconnect race routinely.
func (h *Hub) leaveRoom(c *Client, room string) {
	if room == "" {
		c.send(&Event{Kind: EventError, Error: &CoreError{Code: ErrCodeBadRequest, Message: "room is required"}})
		return
	}
	if ch, ok := h.rooms[room]; ok {
		ch.RemoveClient(c)
		if ch.Empty() {
			delete(h.rooms, room)
		}
	}
	delete(c.Rooms, room)
	c.send(&Event{Kind: EventLeaveAck, Room: room, Status: StatusLeaveAcknowledged})
}

func (h *Hub) dropClient(c *Client) {
	if _, known := h.clients[c.ID]; !known {
		return
	}
	delete(h.clients, c.ID)
	close(c.done)

	for room := range c.Rooms {
		if ch, ok := h.rooms[room]; ok {
			ch.RemoveClient(c)
			if ch.Empty() {
				delete(h.rooms, room)
			}
		}
	}
	c.Rooms = make(map[string]struct{})

	if c.UserID != "" {
		if count, transitioned := h.presence.Disconnect(c.UserID); transitioned {
			h.broadcastPresence(count)
		}
	}
	h.log.Debug().Str("conn_id", c.ID).Msg("connection dropped")
}

func (h *Hub) memberSnapshot(room string) []*Client {
	ch, ok := h.rooms[room]
	if !ok {
		return nil
	}
	return ch.Members()
}

func (h *Hub) broadcastPresence(count int) {
	ev := &Event{Kind: EventPresence, ConnectedUsers: count}
	for _, c := range h.clients {
		c.send(ev)
	}
}
