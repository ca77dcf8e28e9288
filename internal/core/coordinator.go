package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/studyroomhq/studyroom-server/internal/store"
)

// Store is the durable state the coordinator needs: membership rows, the
// predefined message catalog, public profiles and the chat event log.
type Store interface {
	FindMembership(ctx context.Context, roomID, userID int64) (*store.RoomMember, error)
	UpdateMemberStatus(ctx context.Context, roomID, userID int64, status store.MemberStatus, subject *string) error
	GetPredefinedMessage(ctx context.Context, key string) (*store.PredefinedMessage, error)
	GetPublicProfile(ctx context.Context, id int64) (*store.PublicProfile, error)
	SaveMessage(ctx context.Context, roomID, senderID int64, messageKey string) (*store.Message, error)
}

// Coordinator orchestrates join, status-change, send-message, leave and
// disconnect for all live connections. Methods are invoked from each
// connection's read loop, so events of one connection are handled in arrival
// order while connections run concurrently. No lock is held across store
// calls; presence and channel mutations are short and synchronous.
type Coordinator struct {
	store    Store
	presence *Presence
	channels *Channels
	log      *zerolog.Logger
}

// NewCoordinator builds a coordinator with empty presence and channels.
func NewCoordinator(st Store, logger *zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:    st,
		presence: NewPresence(),
		channels: NewChannels(),
		log:      logger,
	}
}

// Presence exposes the registry for transport-layer lookups and tests.
func (co *Coordinator) Presence() *Presence { return co.presence }

// Channels exposes the broadcast domains for tests.
func (co *Coordinator) Channels() *Channels { return co.channels }

// Connect registers an authenticated connection.
func (co *Coordinator) Connect(c *Client) {
	co.presence.Register(c.ConnID, c.UserID, c.Username)
	co.log.Debug().Str("conn_id", c.ConnID).Int64("user_id", c.UserID).Msg("connection registered")
}

// JoinRoom admits a connection into a room it holds durable membership in.
// On success the member's status is reset to idle with the given subject,
// the joining client gets joined-room, the rest of the room gets
// user-joined, and everyone gets the updated active-users-count.
func (co *Coordinator) JoinRoom(ctx context.Context, c *Client, roomID int64, subject *string) {
	_, err := co.store.FindMembership(ctx, roomID, c.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.Send(errorEvent(ErrCodeNoAccess, "you do not have access to this room"))
			return
		}
		co.internalError(c, err, "join: find membership")
		return
	}

	profile, err := co.store.GetPublicProfile(ctx, c.UserID)
	if err != nil {
		co.internalError(c, err, "join: load profile")
		return
	}

	// A connection is attached to at most one room. Switching rooms runs the
	// full leave procedure for the previous one first.
	if entry, ok := co.presence.Lookup(c.ConnID); ok && entry.RoomID != 0 && entry.RoomID != roomID {
		if !co.leave(ctx, c, entry.RoomID, false) {
			return
		}
	}

	// Durable write first: a failure here leaves presence and channels untouched.
	if err := co.store.UpdateMemberStatus(ctx, roomID, c.UserID, store.StatusIdle, subject); err != nil {
		co.internalError(c, err, "join: update membership")
		return
	}

	size := co.channels.Join(roomID, c)
	co.presence.SetRoom(c.ConnID, roomID)

	c.Send(&Event{
		Kind:    EventJoinedRoom,
		RoomID:  roomID,
		Message: "you joined the room",
	})

	co.channels.BroadcastToOthers(roomID, c, &Event{
		Kind:   EventUserJoined,
		RoomID: roomID,
		User: &RoomUser{
			ID:       profile.ID,
			Username: profile.Username,
			AvatarID: profile.AvatarID,
			Status:   store.StatusIdle,
			Subject:  subject,
		},
		Message: fmt.Sprintf("%s joined the room", profile.Username),
	})

	co.channels.BroadcastToAll(roomID, &Event{
		Kind:   EventActiveCount,
		RoomID: roomID,
		Count:  size,
	})

	co.log.Info().Int64("room_id", roomID).Int64("user_id", c.UserID).Msg("user joined room")
}

// StatusChange updates the member's durable status and broadcasts it to the
// whole room. A change for a room the user is not a member of is a silent
// no-op. A nil subject retains the stored one.
func (co *Coordinator) StatusChange(ctx context.Context, c *Client, roomID int64, status store.MemberStatus, subject *string) {
	if !status.Valid() {
		c.Send(errorEvent(ErrCodeInvalidStatus, "invalid status"))
		return
	}

	membership, err := co.store.FindMembership(ctx, roomID, c.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		co.internalError(c, err, "status: find membership")
		return
	}

	resolved := subject
	if resolved == nil {
		resolved = membership.Subject
	}

	if err := co.store.UpdateMemberStatus(ctx, roomID, c.UserID, status, resolved); err != nil {
		co.internalError(c, err, "status: update membership")
		return
	}

	co.channels.BroadcastToAll(roomID, &Event{
		Kind:   EventUserStatusChanged,
		RoomID: roomID,
		Status: &StatusUpdate{
			UserID:   c.UserID,
			Username: c.Username,
			Status:   status,
			Subject:  resolved,
		},
	})

	co.log.Debug().Int64("room_id", roomID).Int64("user_id", c.UserID).Str("status", string(status)).Msg("status changed")
}

// SendMessage resolves a predefined message key, appends the chat event
// durably and broadcasts it to the whole room including the sender.
func (co *Coordinator) SendMessage(ctx context.Context, c *Client, roomID int64, messageKey string) {
	predefined, err := co.store.GetPredefinedMessage(ctx, messageKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.Send(errorEvent(ErrCodeInvalidMessage, "invalid message"))
			return
		}
		co.internalError(c, err, "message: resolve key")
		return
	}

	sender, err := co.store.GetPublicProfile(ctx, c.UserID)
	if err != nil {
		co.internalError(c, err, "message: load sender")
		return
	}

	msg, err := co.store.SaveMessage(ctx, roomID, c.UserID, messageKey)
	if err != nil {
		co.internalError(c, err, "message: save")
		return
	}

	co.channels.BroadcastToAll(roomID, &Event{
		Kind:   EventNewMessage,
		RoomID: roomID,
		Chat: &ChatMessage{
			ID:         msg.ID,
			RoomID:     roomID,
			Sender:     *sender,
			Content:    predefined.Content,
			MessageKey: messageKey,
			CreatedAt:  msg.CreatedAt,
		},
	})

	co.log.Debug().Int64("room_id", roomID).Int64("user_id", c.UserID).Str("key", messageKey).Msg("message sent")
}

// LeaveRoom removes the connection from the room and acknowledges with
// left-room. Leaving a room the connection is not attached to only
// re-acknowledges; no broadcast fires twice.
func (co *Coordinator) LeaveRoom(ctx context.Context, c *Client, roomID int64) {
	if !co.leave(ctx, c, roomID, false) {
		return
	}
	c.Send(&Event{
		Kind:    EventLeftRoom,
		RoomID:  roomID,
		Message: "you left the room",
	})
}

// Disconnect runs the implicit leave for a closed transport. The presence
// entry is consulted for the last known room before it is removed; a second
// call for the same connection does nothing.
func (co *Coordinator) Disconnect(ctx context.Context, c *Client) {
	entry, ok := co.presence.Unregister(c.ConnID)
	if !ok {
		return
	}
	if entry.RoomID != 0 {
		co.leave(ctx, c, entry.RoomID, true)
	}
	co.log.Debug().Str("conn_id", c.ConnID).Int64("user_id", c.UserID).Msg("connection closed")
}

// leave is the shared leave procedure for leave-room and disconnect.
// It reports whether the caller should proceed (for leave-room, whether to
// acknowledge). disconnected marks that the presence entry is already gone.
func (co *Coordinator) leave(ctx context.Context, c *Client, roomID int64, disconnected bool) bool {
	size, removed := co.channels.Leave(roomID, c)
	if !removed {
		// Not attached to this room's channel: nothing to broadcast.
		return !disconnected
	}
	if !disconnected {
		co.presence.SetRoom(c.ConnID, 0)
	}

	if err := co.store.UpdateMemberStatus(ctx, roomID, c.UserID, store.StatusIdle, nil); err != nil && !errors.Is(err, store.ErrNotFound) {
		if disconnected {
			// The connection is gone; keep the in-memory state consistent
			// and only log the failed durable reset.
			co.log.Error().Err(err).Int64("room_id", roomID).Int64("user_id", c.UserID).Msg("leave: reset membership on disconnect")
		} else {
			// Roll back the in-memory mutations so no partial leave remains.
			co.channels.Join(roomID, c)
			co.presence.SetRoom(c.ConnID, roomID)
			co.internalError(c, err, "leave: reset membership")
			return false
		}
	}

	co.channels.BroadcastToOthers(roomID, c, &Event{
		Kind:     EventUserLeft,
		RoomID:   roomID,
		UserID:   c.UserID,
		Username: c.Username,
		Message:  fmt.Sprintf("%s left the room", c.Username),
	})

	co.channels.BroadcastToAll(roomID, &Event{
		Kind:   EventActiveCount,
		RoomID: roomID,
		Count:  size,
	})

	co.log.Info().Int64("room_id", roomID).Int64("user_id", c.UserID).Msg("user left room")
	return true
}

// internalError logs a store failure and surfaces a generic error to the
// acting connection only. Errors never propagate as broadcasts.
func (co *Coordinator) internalError(c *Client, err error, op string) {
	co.log.Error().Err(err).Str("op", op).Str("conn_id", c.ConnID).Msg("coordinator store failure")
	c.Send(errorEvent(ErrCodeInternal, "something went wrong, please retry"))
}

func errorEvent(code, msg string) *Event {
	return &Event{Kind: EventError, Error: coreError(code, msg)}
}
