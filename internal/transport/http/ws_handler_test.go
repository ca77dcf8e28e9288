package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/studyroomhq/studyroom-server/internal/core"
	"github.com/studyroomhq/studyroom-server/internal/proto"
)

func wsURL(env *testEnv, token string) string {
	base := strings.Replace(env.ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		base += "?token=" + token
	}
	return base
}

func dialWS(t *testing.T, ctx context.Context, env *testEnv, token string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, wsURL(env, token), nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, eventType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", eventType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: eventType, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

type rawOutbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readUntil reads outbound frames until one of the wanted type arrives.
// Other frame types (such as interleaved counts) are skipped.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, eventType string) json.RawMessage {
	t.Helper()

	for i := 0; i < 10; i++ {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("read waiting for %s: %v", eventType, err)
		}
		if out.Type == eventType {
			return out.Data
		}
	}
	t.Fatalf("did not receive %s within 10 frames", eventType)
	return nil
}

func TestWSHandshakeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.ts.Client().Get(env.ts.URL + "/ws")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	var body ErrorResponse
	decodeBody(t, resp, &body)
	if body.Code != core.ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized code in rejection body, got %+v", body)
	}

	resp, err = env.ts.Client().Get(env.ts.URL + "/ws?token=garbage")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestWSJoinWithoutMembershipRejected(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env, token)

	sendEvent(t, ctx, conn, proto.InboundJoinRoom, proto.JoinRoomData{RoomID: 42})

	data := readUntil(t, ctx, conn, proto.OutboundError)
	var errData proto.ErrorData
	if err := json.Unmarshal(data, &errData); err != nil {
		t.Fatalf("unmarshal error data: %v", err)
	}
	if errData.Code != "no_access" {
		t.Fatalf("expected no_access, got %+v", errData)
	}
}

func TestWSMalformedPayloadKeepsConnectionAlive(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env, token)

	// roomId of the wrong JSON type.
	if err := wsjson.Write(ctx, conn, proto.Inbound{
		Type: proto.InboundJoinRoom,
		Data: json.RawMessage(`{"roomId":"not-a-number"}`),
	}); err != nil {
		t.Fatalf("write malformed: %v", err)
	}

	data := readUntil(t, ctx, conn, proto.OutboundError)
	var errData proto.ErrorData
	if err := json.Unmarshal(data, &errData); err != nil {
		t.Fatalf("unmarshal error data: %v", err)
	}
	if errData.Code != "bad_request" {
		t.Fatalf("expected bad_request, got %+v", errData)
	}

	// The connection survives: an unknown event type still gets an answer.
	sendEvent(t, ctx, conn, "dance", struct{}{})
	readUntil(t, ctx, conn, proto.OutboundError)
}

func TestWSRoomLifecycle(t *testing.T) {
	env := newTestEnv(t)
	seedCatalog(t, env)

	aliceToken, _ := env.registerUser(t, "alice")
	bobToken, _ := env.registerUser(t, "bob")

	// Alice creates a room, bob redeems the invite code.
	resp := env.doJSON(t, "POST", "/api/rooms", aliceToken, CreateRoomRequest{Name: "deep focus"})
	var room RoomResponse
	decodeBody(t, resp, &room)
	resp = env.doJSON(t, "POST", "/api/rooms/join", bobToken, JoinRoomRequest{InviteCode: room.InviteCode})
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, env, aliceToken)
	bob := dialWS(t, ctx, env, bobToken)

	// Alice joins first.
	sendEvent(t, ctx, alice, proto.InboundJoinRoom, proto.JoinRoomData{RoomID: room.ID})
	readUntil(t, ctx, alice, proto.OutboundJoinedRoom)

	var count proto.ActiveUsersCountData
	if err := json.Unmarshal(readUntil(t, ctx, alice, proto.OutboundActiveUsersCount), &count); err != nil {
		t.Fatalf("unmarshal count: %v", err)
	}
	if count.Count != 1 {
		t.Fatalf("expected count 1, got %d", count.Count)
	}

	// Bob joins with a subject; alice sees user-joined and the new count.
	subject := "math"
	sendEvent(t, ctx, bob, proto.InboundJoinRoom, proto.JoinRoomData{RoomID: room.ID, Subject: &subject})
	readUntil(t, ctx, bob, proto.OutboundJoinedRoom)

	var joined proto.UserJoinedData
	if err := json.Unmarshal(readUntil(t, ctx, alice, proto.OutboundUserJoined), &joined); err != nil {
		t.Fatalf("unmarshal user-joined: %v", err)
	}
	if joined.User.Username != "bob" || joined.User.CurrentStatus != "idle" {
		t.Fatalf("unexpected user-joined: %+v", joined)
	}
	if joined.User.CurrentSubject == nil || *joined.User.CurrentSubject != "math" {
		t.Fatalf("expected subject math, got %v", joined.User.CurrentSubject)
	}
	if err := json.Unmarshal(readUntil(t, ctx, alice, proto.OutboundActiveUsersCount), &count); err != nil {
		t.Fatalf("unmarshal count: %v", err)
	}
	if count.Count != 2 {
		t.Fatalf("expected count 2, got %d", count.Count)
	}

	// Bob starts working; both ends of the room see the status change.
	sendEvent(t, ctx, bob, proto.InboundStatusChange, proto.StatusChangeData{
		RoomID: room.ID,
		Status: "working",
	})
	var status proto.UserStatusChangedData
	if err := json.Unmarshal(readUntil(t, ctx, alice, proto.OutboundUserStatusChanged), &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.Username != "bob" || status.Status != "working" {
		t.Fatalf("unexpected status payload: %+v", status)
	}
	if status.Subject == nil || *status.Subject != "math" {
		t.Fatalf("expected retained subject, got %v", status.Subject)
	}
	readUntil(t, ctx, bob, proto.OutboundUserStatusChanged)

	// Alice sends a catalog message, both receive it resolved.
	sendEvent(t, ctx, alice, proto.InboundSendMessage, proto.SendMessageData{
		RoomID:     room.ID,
		MessageKey: "keep_going",
	})
	var msg proto.NewMessageData
	if err := json.Unmarshal(readUntil(t, ctx, bob, proto.OutboundNewMessage), &msg); err != nil {
		t.Fatalf("unmarshal new-message: %v", err)
	}
	if msg.Content != "Keep going, you can do it!" || msg.Sender.Username != "alice" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	readUntil(t, ctx, alice, proto.OutboundNewMessage)

	// Unknown keys are rejected without reaching the room.
	sendEvent(t, ctx, alice, proto.InboundSendMessage, proto.SendMessageData{
		RoomID:     room.ID,
		MessageKey: "nope",
	})
	var errData proto.ErrorData
	if err := json.Unmarshal(readUntil(t, ctx, alice, proto.OutboundError), &errData); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if errData.Code != "invalid_message" {
		t.Fatalf("expected invalid_message, got %+v", errData)
	}

	// Bob leaves; alice sees user-left and the count drops.
	sendEvent(t, ctx, bob, proto.InboundLeaveRoom, proto.LeaveRoomData{RoomID: room.ID})
	readUntil(t, ctx, bob, proto.OutboundLeftRoom)

	var left proto.UserLeftData
	if err := json.Unmarshal(readUntil(t, ctx, alice, proto.OutboundUserLeft), &left); err != nil {
		t.Fatalf("unmarshal user-left: %v", err)
	}
	if left.Username != "bob" {
		t.Fatalf("unexpected user-left: %+v", left)
	}
	if err := json.Unmarshal(readUntil(t, ctx, alice, proto.OutboundActiveUsersCount), &count); err != nil {
		t.Fatalf("unmarshal count: %v", err)
	}
	if count.Count != 1 {
		t.Fatalf("expected count 1 after leave, got %d", count.Count)
	}
}

func TestWSDisconnectRunsImplicitLeave(t *testing.T) {
	env := newTestEnv(t)

	aliceToken, _ := env.registerUser(t, "alice")
	bobToken, _ := env.registerUser(t, "bob")

	resp := env.doJSON(t, "POST", "/api/rooms", aliceToken, CreateRoomRequest{Name: "deep focus"})
	var room RoomResponse
	decodeBody(t, resp, &room)
	resp = env.doJSON(t, "POST", "/api/rooms/join", bobToken, JoinRoomRequest{InviteCode: room.InviteCode})
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alice := dialWS(t, ctx, env, aliceToken)
	bob := dialWS(t, ctx, env, bobToken)

	sendEvent(t, ctx, alice, proto.InboundJoinRoom, proto.JoinRoomData{RoomID: room.ID})
	readUntil(t, ctx, alice, proto.OutboundJoinedRoom)
	sendEvent(t, ctx, bob, proto.InboundJoinRoom, proto.JoinRoomData{RoomID: room.ID})
	readUntil(t, ctx, bob, proto.OutboundJoinedRoom)
	readUntil(t, ctx, alice, proto.OutboundUserJoined)

	// Bob's transport drops without a leave-room event.
	_ = bob.Close(websocket.StatusNormalClosure, "gone")

	var left proto.UserLeftData
	if err := json.Unmarshal(readUntil(t, ctx, alice, proto.OutboundUserLeft), &left); err != nil {
		t.Fatalf("unmarshal user-left: %v", err)
	}
	if left.Username != "bob" {
		t.Fatalf("expected bob to leave, got %+v", left)
	}

	var count proto.ActiveUsersCountData
	if err := json.Unmarshal(readUntil(t, ctx, alice, proto.OutboundActiveUsersCount), &count); err != nil {
		t.Fatalf("unmarshal count: %v", err)
	}
	if count.Count != 1 {
		t.Fatalf("expected count 1 after disconnect, got %d", count.Count)
	}
}
