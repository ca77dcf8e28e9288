package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studyroomhq/studyroom-server/internal/store"
)

// recentMessageLimit bounds how much history room details return.
const recentMessageLimit = 50

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=64"`
	MaxMembers *int   `json:"max_members" binding:"omitempty,min=2"`
}

// JoinRoomRequest represents the invite-code join request body.
type JoinRoomRequest struct {
	InviteCode string `json:"invite_code" binding:"required,len=6"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	OwnerID    int64  `json:"owner_id"`
	InviteCode string `json:"invite_code,omitempty"`
	MaxMembers *int   `json:"max_members,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func roomResponse(room *store.Room) RoomResponse {
	return RoomResponse{
		ID:         room.ID,
		Name:       room.Name,
		Type:       string(room.Type),
		OwnerID:    room.OwnerID,
		InviteCode: room.InviteCode,
		MaxMembers: room.MaxMembers,
		CreatedAt:  room.CreatedAt.Format(time.RFC3339),
	}
}

// CreateRoom creates a private room with a fresh invite code; the creator
// becomes owner and first member.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	inviteCode, err := h.generateInviteCode(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate invite code")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	room, err := h.store.CreateRoom(c.Request.Context(), req.Name, userID, req.MaxMembers, inviteCode)
	if err != nil {
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_name", room.Name).Int64("room_id", room.ID).Int64("owner_id", userID).Msg("room created")
	c.JSON(http.StatusCreated, roomResponse(room))
}

// JoinRoom admits the user to a private room via invite code.
// POST /api/rooms/join
func (h *RoomHandlers) JoinRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.store.JoinByInviteCode(c.Request.Context(), req.InviteCode, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "invalid invite code"})
		case errors.Is(err, store.ErrAlreadyMember):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "already a member of this room"})
		case errors.Is(err, store.ErrRoomFull):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "room is full"})
		default:
			h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to join room")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Int64("room_id", room.ID).Int64("user_id", userID).Msg("user admitted to room")
	c.JSON(http.StatusOK, roomResponse(room))
}

// ListPublicRooms lists rooms visible to everyone.
// GET /api/rooms
func (h *RoomHandlers) ListPublicRooms(c *gin.Context) {
	rooms, err := h.store.ListPublicRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		r := roomResponse(room)
		r.InviteCode = "" // not exposed in listings
		response = append(response, r)
	}

	c.JSON(http.StatusOK, response)
}

// MemberResponse represents a room member with live status and study stats.
type MemberResponse struct {
	ID              int64   `json:"id"`
	Username        string  `json:"username"`
	AvatarID        int64   `json:"avatar_id"`
	CurrentStatus   string  `json:"current_status"`
	CurrentSubject  *string `json:"current_subject"`
	TotalStudyToday int64   `json:"totalStudyToday"`
}

// MessageResponse represents a chat message with resolved content.
type MessageResponse struct {
	ID         int64          `json:"id"`
	RoomID     int64          `json:"room_id"`
	Sender     SenderResponse `json:"sender"`
	Content    string         `json:"content"`
	MessageKey string         `json:"message_key"`
	CreatedAt  string         `json:"created_at"`
}

// SenderResponse is a message sender's public profile.
type SenderResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	AvatarID int64  `json:"avatar_id"`
}

// RoomDetailsResponse bundles a room with its members and recent messages.
type RoomDetailsResponse struct {
	RoomResponse
	Members  []MemberResponse  `json:"members"`
	Messages []MessageResponse `json:"messages"`
}

// RoomDetails returns a room with member statuses and recent messages.
// Private rooms are only visible to members.
// GET /api/rooms/:id
func (h *RoomHandlers) RoomDetails(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || roomID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	ctx := c.Request.Context()

	room, err := h.store.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to load room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if room.Type == store.RoomTypePrivate {
		if _, err := h.store.FindMembership(ctx, roomID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusForbidden, ErrorResponse{Error: "you do not have access to this room"})
				return
			}
			h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to check membership")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
	}

	members, err := h.store.ListMembers(ctx, roomID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to list members")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	messages, err := h.store.ListRecentMessages(ctx, roomID, recentMessageLimit)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	details := RoomDetailsResponse{
		RoomResponse: roomResponse(room),
		Members:      make([]MemberResponse, 0, len(members)),
		Messages:     make([]MessageResponse, 0, len(messages)),
	}
	for _, m := range members {
		details.Members = append(details.Members, MemberResponse{
			ID:              m.Profile.ID,
			Username:        m.Profile.Username,
			AvatarID:        m.Profile.AvatarID,
			CurrentStatus:   string(m.Status),
			CurrentSubject:  m.Subject,
			TotalStudyToday: m.StudyTodaySecs,
		})
	}
	for _, msg := range messages {
		details.Messages = append(details.Messages, MessageResponse{
			ID:     msg.ID,
			RoomID: msg.RoomID,
			Sender: SenderResponse{
				ID:       msg.Sender.ID,
				Username: msg.Sender.Username,
				AvatarID: msg.Sender.AvatarID,
			},
			Content:    msg.Content,
			MessageKey: msg.MessageKey,
			CreatedAt:  msg.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, details)
}

// PredefinedMessageResponse represents one catalog entry.
type PredefinedMessageResponse struct {
	MessageKey  string  `json:"message_key"`
	Content     string  `json:"content"`
	MessageType *string `json:"message_type"`
}

// ListPredefinedMessages lists the fixed chat catalog.
// GET /api/messages/predefined
func (h *RoomHandlers) ListPredefinedMessages(c *gin.Context) {
	catalog, err := h.store.ListPredefinedMessages(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list predefined messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]PredefinedMessageResponse, 0, len(catalog))
	for _, pm := range catalog {
		response = append(response, PredefinedMessageResponse{
			MessageKey:  pm.Key,
			Content:     pm.Content,
			MessageType: pm.Type,
		})
	}

	c.JSON(http.StatusOK, response)
}

// generateInviteCode produces a 6-character code that is not in use yet.
func (h *RoomHandlers) generateInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		code := hex.EncodeToString(buf)

		_, err := h.store.GetRoomByInviteCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		// collision, try again
	}
	return "", errors.New("could not generate a unique invite code")
}
