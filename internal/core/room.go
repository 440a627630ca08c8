package core

// RoomChannel is the live fan-out list for one room: the set of currently
// subscribed connections. It is rebuilt purely from join/leave events and is
// independent of persisted room membership. Mutated only by the hub
// goroutine.
type RoomChannel struct {
	Name    string
	clients map[*Client]struct{}
}

// NewRoomChannel constructs a room channel with no subscribers.
func NewRoomChannel(name string) *RoomChannel {
	return &RoomChannel{
		Name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the channel. Returns true if newly added.
func (r *RoomChannel) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the channel. Returns true if removed.
func (r *RoomChannel) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Members returns a point-in-time snapshot of the subscribed clients.
func (r *RoomChannel) Members() []*Client {
	members := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		members = append(members, c)
	}
	return members
}

// Empty returns true if no clients are subscribed.
func (r *RoomChannel) Empty() bool {
	return len(r.clients) == 0
}
