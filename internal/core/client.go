package core

// Client is a live authenticated connection as seen by the core layer.
// ConnID is unique per socket; the same user may hold several clients.
type Client struct {
	ConnID   string
	UserID   int64
	Username string
	Events   chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(connID string, userID int64, username string) *Client {
	return &Client{
		ConnID:   connID,
		UserID:   userID,
		Username: username,
		Events:   make(chan *Event, 16),
	}
}

// Send delivers an event to the client without blocking.
func (c *Client) Send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
	}
}
