package core

// Client is a connected chat participant as seen by the core layer.
// The hub actor owns all fields except Events, which the transport's
// write loop drains.
type Client struct {
	ID        string
	Name      string
	ChannelID string // current channel, empty when none selected
	Events    chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id, name string) *Client {
	return &Client{
		ID:     id,
		Name:   name,
		Events: make(chan *Event, 32),
	}
}

// trySend delivers an event without blocking the hub actor.
func (c *Client) trySend(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}
