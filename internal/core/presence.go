package core

import "sync"

// PresenceEntry records which user a live connection belongs to and which
// room it is currently attached to. RoomID 0 means "not in a room".
type PresenceEntry struct {
	UserID   int64
	Username string
	RoomID   int64
}

// Presence is the in-memory registry of live connections. It is the only
// place that knows which connections are online right now, as opposed to
// merely being members of record. All methods are safe for concurrent use.
type Presence struct {
	mu      sync.Mutex
	entries map[string]PresenceEntry
}

// NewPresence constructs an empty registry.
func NewPresence() *Presence {
	return &Presence{entries: make(map[string]PresenceEntry)}
}

// Register adds a connection after successful authentication.
func (p *Presence) Register(connID string, userID int64, username string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[connID] = PresenceEntry{UserID: userID, Username: username}
}

// SetRoom records the room a connection is attached to. Zero clears it.
func (p *Presence) SetRoom(connID string, roomID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[connID]
	if !ok {
		return
	}
	entry.RoomID = roomID
	p.entries[connID] = entry
}

// Lookup returns the entry for a connection, if registered.
func (p *Presence) Lookup(connID string) (PresenceEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[connID]
	return entry, ok
}

// Unregister removes a connection and returns its last entry. It is
// idempotent: a second call for the same connection returns ok=false, which
// keeps disconnect handling from double-firing leave broadcasts.
func (p *Presence) Unregister(connID string) (PresenceEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[connID]
	if ok {
		delete(p.entries, connID)
	}
	return entry, ok
}

// CountInRoom returns how many registered connections are in the room.
func (p *Presence) CountInRoom(roomID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, entry := range p.entries {
		if entry.RoomID == roomID {
			count++
		}
	}
	return count
}
