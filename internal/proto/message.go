package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client -> server event names.
const (
	InboundJoinRoom     = "join-room"
	InboundStatusChange = "status-change"
	InboundSendMessage  = "send-message"
	InboundLeaveRoom    = "leave-room"
)

// Server -> client event names.
const (
	OutboundJoinedRoom        = "joined-room"
	OutboundUserJoined        = "user-joined"
	OutboundUserStatusChanged = "user-status-changed"
	OutboundNewMessage        = "new-message"
	OutboundLeftRoom          = "left-room"
	OutboundUserLeft          = "user-left"
	OutboundActiveUsersCount  = "active-users-count"
	OutboundError             = "error"
)

// JoinRoomData requests to join a room the user holds membership in.
type JoinRoomData struct {
	RoomID  int64   `json:"roomId"`
	Subject *string `json:"subject,omitempty"`
}

// StatusChangeData updates the user's live status in a room.
type StatusChangeData struct {
	RoomID  int64   `json:"roomId"`
	Status  string  `json:"status"`
	Subject *string `json:"subject,omitempty"`
}

// SendMessageData sends one of the predefined catalog messages.
type SendMessageData struct {
	RoomID     int64  `json:"roomId"`
	MessageKey string `json:"messageKey"`
}

// LeaveRoomData requests to leave a room.
type LeaveRoomData struct {
	RoomID int64 `json:"roomId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// JoinedRoomData acknowledges a successful join.
type JoinedRoomData struct {
	RoomID  int64  `json:"roomId"`
	Message string `json:"message"`
}

// RoomUserData is a member profile with live status, as sent in user-joined.
type RoomUserData struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	AvatarID       int64   `json:"avatar_id"`
	CurrentStatus  string  `json:"current_status"`
	CurrentSubject *string `json:"current_subject"`
}

// UserJoinedData notifies room members about a newly joined user.
type UserJoinedData struct {
	User    RoomUserData `json:"user"`
	Message string       `json:"message"`
}

// UserStatusChangedData notifies the room about a status change.
type UserStatusChangedData struct {
	UserID   int64   `json:"userId"`
	Username string  `json:"username"`
	Status   string  `json:"status"`
	Subject  *string `json:"subject"`
}

// SenderData is the public profile of a message sender.
type SenderData struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	AvatarID int64  `json:"avatar_id"`
}

// NewMessageData carries a persisted chat message.
type NewMessageData struct {
	ID         int64      `json:"id"`
	RoomID     int64      `json:"room_id"`
	Sender     SenderData `json:"sender"`
	Content    string     `json:"content"`
	MessageKey string     `json:"message_key"`
	CreatedAt  string     `json:"created_at"`
}

// LeftRoomData acknowledges a leave to the departing client.
type LeftRoomData struct {
	RoomID  int64  `json:"roomId"`
	Message string `json:"message"`
}

// UserLeftData notifies remaining members that a user left.
type UserLeftData struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ActiveUsersCountData carries the live connection count of a room.
type ActiveUsersCountData struct {
	Count int `json:"count"`
}

// ErrorData describes a protocol or domain error. Reasons lists the
// individual validation failures when a payload was rejected.
type ErrorData struct {
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
}
