package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/studyroomhq/studyroom-server/internal/core"
	"github.com/studyroomhq/studyroom-server/internal/proto"
	"github.com/studyroomhq/studyroom-server/internal/store"
)

const maxSubjectLen = 100

// dispatch validates an inbound event and hands it to the coordinator.
// A non-nil return is a protocol error to answer with; the connection stays
// alive either way. Payloads are fully checked before any mutation.
func dispatch(ctx context.Context, coord *core.Coordinator, client *core.Client, inbound proto.Inbound) *proto.ErrorData {
	switch inbound.Type {
	case proto.InboundJoinRoom:
		var data proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badRequest("malformed join-room payload")
		}
		if reasons := validateRoomID(data.RoomID, validateSubject(data.Subject, nil)); len(reasons) > 0 {
			return validationError(reasons)
		}
		coord.JoinRoom(ctx, client, data.RoomID, data.Subject)
		return nil

	case proto.InboundStatusChange:
		var data proto.StatusChangeData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badRequest("malformed status-change payload")
		}
		reasons := validateRoomID(data.RoomID, validateSubject(data.Subject, nil))
		if data.Status == "" {
			reasons = append(reasons, "status is required")
		}
		if len(reasons) > 0 {
			return validationError(reasons)
		}
		coord.StatusChange(ctx, client, data.RoomID, store.MemberStatus(data.Status), data.Subject)
		return nil

	case proto.InboundSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badRequest("malformed send-message payload")
		}
		reasons := validateRoomID(data.RoomID, nil)
		if data.MessageKey == "" {
			reasons = append(reasons, "messageKey is required")
		}
		if len(reasons) > 0 {
			return validationError(reasons)
		}
		coord.SendMessage(ctx, client, data.RoomID, data.MessageKey)
		return nil

	case proto.InboundLeaveRoom:
		var data proto.LeaveRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return badRequest("malformed leave-room payload")
		}
		if reasons := validateRoomID(data.RoomID, nil); len(reasons) > 0 {
			return validationError(reasons)
		}
		coord.LeaveRoom(ctx, client, data.RoomID)
		return nil

	default:
		return badRequest("unknown event type")
	}
}

func validateRoomID(roomID int64, reasons []string) []string {
	if roomID <= 0 {
		reasons = append(reasons, "roomId must be a positive integer")
	}
	return reasons
}

func validateSubject(subject *string, reasons []string) []string {
	if subject != nil && len(*subject) > maxSubjectLen {
		reasons = append(reasons, "subject must be at most 100 characters")
	}
	return reasons
}

func badRequest(msg string) *proto.ErrorData {
	return &proto.ErrorData{Code: core.ErrCodeBadRequest, Message: msg}
}

func validationError(reasons []string) *proto.ErrorData {
	return &proto.ErrorData{
		Code:    core.ErrCodeBadRequest,
		Message: "invalid payload",
		Reasons: reasons,
	}
}

// outboundFromEvent maps a core event to its wire representation.
func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventJoinedRoom:
		return proto.Outbound{
			Type: proto.OutboundJoinedRoom,
			Data: proto.JoinedRoomData{
				RoomID:  event.RoomID,
				Message: event.Message,
			},
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type: proto.OutboundUserJoined,
			Data: proto.UserJoinedData{
				User: proto.RoomUserData{
					ID:             event.User.ID,
					Username:       event.User.Username,
					AvatarID:       event.User.AvatarID,
					CurrentStatus:  string(event.User.Status),
					CurrentSubject: event.User.Subject,
				},
				Message: event.Message,
			},
		}
	case core.EventUserStatusChanged:
		return proto.Outbound{
			Type: proto.OutboundUserStatusChanged,
			Data: proto.UserStatusChangedData{
				UserID:   event.Status.UserID,
				Username: event.Status.Username,
				Status:   string(event.Status.Status),
				Subject:  event.Status.Subject,
			},
		}
	case core.EventNewMessage:
		return proto.Outbound{
			Type: proto.OutboundNewMessage,
			Data: proto.NewMessageData{
				ID:     event.Chat.ID,
				RoomID: event.Chat.RoomID,
				Sender: proto.SenderData{
					ID:       event.Chat.Sender.ID,
					Username: event.Chat.Sender.Username,
					AvatarID: event.Chat.Sender.AvatarID,
				},
				Content:    event.Chat.Content,
				MessageKey: event.Chat.MessageKey,
				CreatedAt:  event.Chat.CreatedAt.Format(time.RFC3339),
			},
		}
	case core.EventLeftRoom:
		return proto.Outbound{
			Type: proto.OutboundLeftRoom,
			Data: proto.LeftRoomData{
				RoomID:  event.RoomID,
				Message: event.Message,
			},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type: proto.OutboundUserLeft,
			Data: proto.UserLeftData{
				UserID:   event.UserID,
				Username: event.Username,
				Message:  event.Message,
			},
		}
	case core.EventActiveCount:
		return proto.Outbound{
			Type: proto.OutboundActiveUsersCount,
			Data: proto.ActiveUsersCountData{Count: event.Count},
		}
	case core.EventError:
		return proto.Outbound{
			Type: proto.OutboundError,
			Data: proto.ErrorData{
				Code:    event.Error.Code,
				Message: event.Error.Message,
			},
		}
	default:
		return proto.Outbound{Type: proto.OutboundError, Data: proto.ErrorData{
			Code:    core.ErrCodeInternal,
			Message: "unknown event",
		}}
	}
}
