package core

// Client is a live connection as seen by the core layer. It starts
// unauthenticated; identity is bound by an authenticate command.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	// Mutated only by the hub goroutine.
	UserID string
	Rooms  map[string]struct{}

	done chan struct{}
}

// NewClient constructs an unauthenticated client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 8),
		Rooms:    make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// send delivers an event without blocking. Slow consumers drop events; the
// delivery protocol's retries cover the loss for acknowledged broadcasts.
func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}
