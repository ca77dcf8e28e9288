package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyMember is returned when joining a room the user already belongs to.
	ErrAlreadyMember = errors.New("already a member")
	// ErrRoomFull is returned when a room has reached its member limit.
	ErrRoomFull = errors.New("room is full")
)

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	AvatarID     int64
	CreatedAt    time.Time
}

// PublicProfile is the subset of a user safe to broadcast to other clients.
type PublicProfile struct {
	ID       int64
	Username string
	AvatarID int64
}

// RoomType defines room visibility.
type RoomType string

const (
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
)

// Room represents a study room.
type Room struct {
	ID         int64
	Name       string
	Type       RoomType
	OwnerID    int64
	InviteCode string
	MaxMembers *int // nil means unlimited
	CreatedAt  time.Time
}

// MemberStatus is the live-session status of a room member.
type MemberStatus string

const (
	StatusIdle    MemberStatus = "idle"
	StatusWorking MemberStatus = "working"
	StatusBreak   MemberStatus = "break"
)

// Valid reports whether s is one of the allowed statuses.
func (s MemberStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusWorking, StatusBreak:
		return true
	}
	return false
}

// RoomMember represents durable room membership.
// At most one row exists per (room_id, user_id) pair.
type RoomMember struct {
	RoomID   int64
	UserID   int64
	Status   MemberStatus
	Subject  *string
	JoinedAt time.Time
}

// MemberInfo joins a membership row with the member's public profile
// and their accumulated study time for today.
type MemberInfo struct {
	Profile        PublicProfile
	Status         MemberStatus
	Subject        *string
	JoinedAt       time.Time
	StudyTodaySecs int64
}

// Message represents a persisted chat event. The body is not stored;
// message_key references the predefined catalog.
type Message struct {
	ID         int64
	RoomID     int64
	SenderID   int64
	MessageKey string
	CreatedAt  time.Time
}

// MessageDetail is a message joined with its resolved content and sender profile.
type MessageDetail struct {
	Message
	Content string
	Sender  PublicProfile
}

// PredefinedMessage is one entry of the fixed chat catalog.
type PredefinedMessage struct {
	Key     string
	Content string
	Type    *string
}

// SessionType defines how a study session was timed.
type SessionType string

const (
	SessionPomodoro  SessionType = "pomodoro"
	SessionStopwatch SessionType = "stopwatch"
	SessionTimer     SessionType = "timer"
)

// Valid reports whether t is one of the allowed session types.
func (t SessionType) Valid() bool {
	switch t {
	case SessionPomodoro, SessionStopwatch, SessionTimer:
		return true
	}
	return false
}

// StudySession is one recorded focus period.
type StudySession struct {
	ID              int64
	UserID          int64
	SessionType     SessionType
	DurationSeconds int
	Subject         *string
	CreatedAt       time.Time
}

// SessionFilter narrows ListSessions results. Zero values mean "no filter".
type SessionFilter struct {
	SessionType SessionType
	Start       time.Time
	End         time.Time
	Limit       int
}

// DailyTotal is the summed focus time for one calendar day.
type DailyTotal struct {
	Day          string // YYYY-MM-DD
	TotalSeconds int64
}

// GroupTotal is the summed focus time for one subject or session type.
type GroupTotal struct {
	Key          string
	TotalSeconds int64
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateUser updates mutable profile fields. Nil pointers are left unchanged.
	UpdateUser(ctx context.Context, id int64, username *string, avatarID *int64) (*User, error)

	// GetPublicProfile retrieves the broadcast-safe view of a user.
	GetPublicProfile(ctx context.Context, id int64) (*PublicProfile, error)
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a private room and adds the owner as its first
	// member in the same transaction.
	CreateRoom(ctx context.Context, name string, ownerID int64, maxMembers *int, inviteCode string) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// GetRoomByInviteCode retrieves a private room by its invite code.
	GetRoomByInviteCode(ctx context.Context, code string) (*Room, error)

	// JoinByInviteCode admits a user to a private room. Fails if the user
	// is already a member or the room is at capacity.
	JoinByInviteCode(ctx context.Context, code string, userID int64) (*Room, error)

	// ListPublicRooms lists rooms visible to everyone.
	ListPublicRooms(ctx context.Context) ([]*Room, error)

	// ListMembers lists room members with profiles, live status and
	// today's accumulated study time.
	ListMembers(ctx context.Context, roomID int64) ([]*MemberInfo, error)
}

// MembershipStore is the durable source of truth for room access and
// last known member status.
type MembershipStore interface {
	// FindMembership retrieves the membership row for (roomID, userID).
	// Returns ErrNotFound if the user is not a member.
	FindMembership(ctx context.Context, roomID, userID int64) (*RoomMember, error)

	// UpdateMemberStatus replaces the status and subject of an existing
	// membership row. Passing a nil subject clears it.
	UpdateMemberStatus(ctx context.Context, roomID, userID int64, status MemberStatus, subject *string) error
}

// MessageStore handles chat event persistence.
type MessageStore interface {
	// SaveMessage appends a chat event and returns the stored row.
	SaveMessage(ctx context.Context, roomID, senderID int64, messageKey string) (*Message, error)

	// ListRecentMessages retrieves the newest messages of a room in
	// chronological order, with resolved content and sender profiles.
	ListRecentMessages(ctx context.Context, roomID int64, limit int) ([]*MessageDetail, error)
}

// CatalogStore is the read-only predefined message catalog.
type CatalogStore interface {
	// GetPredefinedMessage resolves a message key. Returns ErrNotFound
	// for unknown keys.
	GetPredefinedMessage(ctx context.Context, key string) (*PredefinedMessage, error)

	// ListPredefinedMessages lists the whole catalog.
	ListPredefinedMessages(ctx context.Context) ([]*PredefinedMessage, error)
}

// SessionStore handles study session persistence and statistics.
type SessionStore interface {
	// CreateSession records a finished study session.
	CreateSession(ctx context.Context, userID int64, sessionType SessionType, durationSeconds int, subject *string) (*StudySession, error)

	// ListSessions lists a user's sessions, newest first.
	ListSessions(ctx context.Context, userID int64, filter SessionFilter) ([]*StudySession, error)

	// DeleteSession removes one of the user's sessions. Returns ErrNotFound
	// when the row does not exist or belongs to another user.
	DeleteSession(ctx context.Context, userID, sessionID int64) error

	// TotalFocusSeconds sums all focus time for a user.
	TotalFocusSeconds(ctx context.Context, userID int64) (int64, error)

	// DailyTotals sums focus time per day since the given time.
	DailyTotals(ctx context.Context, userID int64, since time.Time) ([]DailyTotal, error)

	// SubjectTotals sums focus time per subject.
	SubjectTotals(ctx context.Context, userID int64) ([]GroupTotal, error)

	// SessionTypeTotals sums focus time per session type.
	SessionTypeTotals(ctx context.Context, userID int64) ([]GroupTotal, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MembershipStore
	MessageStore
	CatalogStore
	SessionStore

	// Close closes the underlying database connection.
	Close() error
}
