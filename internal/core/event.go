package core

import (
	"time"

	"github.com/studyroomhq/studyroom-server/internal/store"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventJoinedRoom acknowledges a successful join to the joining client.
	EventJoinedRoom EventKind = iota
	// EventUserJoined notifies room members that a user came online in the room.
	EventUserJoined
	// EventUserStatusChanged notifies the room about a status change.
	EventUserStatusChanged
	// EventNewMessage notifies the room about a persisted chat message.
	EventNewMessage
	// EventLeftRoom acknowledges a leave to the departing client.
	EventLeftRoom
	// EventUserLeft notifies remaining members that a user left the room.
	EventUserLeft
	// EventActiveCount carries the live connection count of a room.
	EventActiveCount
	// EventError notifies a single client about a domain error.
	EventError
)

// RoomUser is a member's public profile together with their live status,
// as broadcast in user-joined events.
type RoomUser struct {
	ID       int64
	Username string
	AvatarID int64
	Status   store.MemberStatus
	Subject  *string
}

// StatusUpdate describes a user-status-changed broadcast.
type StatusUpdate struct {
	UserID   int64
	Username string
	Status   store.MemberStatus
	Subject  *string
}

// ChatMessage describes a new-message broadcast.
type ChatMessage struct {
	ID         int64
	RoomID     int64
	Sender     store.PublicProfile
	Content    string
	MessageKey string
	CreatedAt  time.Time
}

// Event is sent to clients to describe what happened in the system.
// Fields beyond Kind are populated per kind.
type Event struct {
	Kind     EventKind
	RoomID   int64
	Message  string        // human-readable notice for join/leave events
	UserID   int64         // for user-left
	Username string        // for user-left
	User     *RoomUser     // for user-joined
	Status   *StatusUpdate // for user-status-changed
	Chat     *ChatMessage  // for new-message
	Count    int           // for active-users-count
	Error    *CoreError    // for error
}
