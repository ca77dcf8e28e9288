package core

import "sync"

// Channels owns the broadcast domains: one group of live clients per room.
// It is deliberately decoupled from any transport grouping feature so the
// channel/registry consistency invariant can be verified on its own.
// All methods are safe for concurrent use; mutations are short and never
// block on a client (slow consumers drop events).
type Channels struct {
	mu    sync.Mutex
	rooms map[int64]map[*Client]struct{}
}

// NewChannels constructs an empty channel set.
func NewChannels() *Channels {
	return &Channels{rooms: make(map[int64]map[*Client]struct{})}
}

// Join adds a client to a room's broadcast group and returns the group size
// after the mutation. Joining an already-joined client is a no-op.
func (ch *Channels) Join(roomID int64, c *Client) int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	room, ok := ch.rooms[roomID]
	if !ok {
		room = make(map[*Client]struct{})
		ch.rooms[roomID] = room
	}
	room[c] = struct{}{}
	return len(room)
}

// Leave removes a client from a room's broadcast group. It returns the group
// size after the mutation and whether the client was actually a member.
// Leaving a non-member is a no-op.
func (ch *Channels) Leave(roomID int64, c *Client) (int, bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	room, ok := ch.rooms[roomID]
	if !ok {
		return 0, false
	}
	if _, member := room[c]; !member {
		return len(room), false
	}
	delete(room, c)
	size := len(room)
	if size == 0 {
		delete(ch.rooms, roomID)
	}
	return size, true
}

// Size returns the number of clients currently in the room's group.
func (ch *Channels) Size(roomID int64) int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.rooms[roomID])
}

// Contains reports whether the client is in the room's group.
func (ch *Channels) Contains(roomID int64, c *Client) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	_, ok := ch.rooms[roomID][c]
	return ok
}

// BroadcastToOthers delivers an event once to every client in the room
// except the sender.
func (ch *Channels) BroadcastToOthers(roomID int64, sender *Client, ev *Event) {
	for _, c := range ch.snapshot(roomID) {
		if c == sender {
			continue
		}
		c.Send(ev)
	}
}

// BroadcastToAll delivers an event once to every client in the room,
// including the sender.
func (ch *Channels) BroadcastToAll(roomID int64, ev *Event) {
	for _, c := range ch.snapshot(roomID) {
		c.Send(ev)
	}
}

// snapshot copies the member set so delivery happens without holding the lock.
func (ch *Channels) snapshot(roomID int64) []*Client {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	room := ch.rooms[roomID]
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	return clients
}
