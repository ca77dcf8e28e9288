package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/studyroomhq/studyroom-server/internal/auth"
	"github.com/studyroomhq/studyroom-server/internal/core"
	"github.com/studyroomhq/studyroom-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to the coordinator.
type WSHandler struct {
	coord *core.Coordinator
	auth  *auth.Service
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(coord *core.Coordinator, authService *auth.Service, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{coord: coord, auth: authService, log: logger}
}

// Handle authenticates the handshake, upgrades the connection and runs the
// read/write loops until the transport closes.
func (h *WSHandler) Handle(c *gin.Context) {
	identity, err := h.auth.Authenticate(handshakeToken(c.Request))
	if err != nil {
		status := stdhttp.StatusUnauthorized
		msg := "invalid token"
		if errors.Is(err, auth.ErrTokenMissing) {
			msg = "token required"
		}
		h.log.Debug().Err(err).Msg("ws handshake rejected")
		c.JSON(status, ErrorResponse{Error: msg, Code: core.ErrCodeUnauthorized})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(uuid.NewString(), identity.UserID, identity.Username)
	h.coord.Connect(client)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The implicit leave must run even when the context died with the
	// transport, so it gets its own context.
	defer h.coord.Disconnect(context.WithoutCancel(ctx), client)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if protoErr := dispatch(ctx, h.coord, client, inbound); protoErr != nil {
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Type: proto.OutboundError,
				Data: protoErr,
			}); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ConnID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handshakeToken extracts the bearer token from the Authorization header or,
// for browser clients that cannot set headers on websocket dials, from the
// token query parameter.
func handshakeToken(r *stdhttp.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return r.URL.Query().Get("token")
}
