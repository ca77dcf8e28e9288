package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studyroomhq/studyroom-server/internal/auth"
	"github.com/studyroomhq/studyroom-server/internal/config"
	"github.com/studyroomhq/studyroom-server/internal/core"
	"github.com/studyroomhq/studyroom-server/internal/store"
)

// NewServer builds the HTTP server: REST API plus the websocket endpoint.
func NewServer(coord *core.Coordinator, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	authHandlers := NewAuthHandlers(authService, st, logger)
	roomHandlers := NewRoomHandlers(st, logger)
	sessionHandlers := NewSessionHandlers(st, logger)
	wsHandler := NewWSHandler(coord, authService, logger)

	api := router.Group("/api")
	{
		api.POST("/register", authHandlers.Register)
		api.POST("/login", authHandlers.Login)

		authorized := api.Group("")
		authorized.Use(AuthMiddleware(authService, logger))
		{
			authorized.POST("/logout", authHandlers.Logout)
			authorized.GET("/me", authHandlers.Profile)
			authorized.PUT("/me", authHandlers.UpdateProfile)

			authorized.POST("/rooms", roomHandlers.CreateRoom)
			authorized.POST("/rooms/join", roomHandlers.JoinRoom)
			authorized.GET("/rooms", roomHandlers.ListPublicRooms)
			authorized.GET("/rooms/:id", roomHandlers.RoomDetails)
			authorized.GET("/messages/predefined", roomHandlers.ListPredefinedMessages)

			authorized.POST("/sessions", sessionHandlers.CreateSession)
			authorized.GET("/sessions", sessionHandlers.ListSessions)
			authorized.GET("/sessions/stats", sessionHandlers.Statistics)
			authorized.DELETE("/sessions/:id", sessionHandlers.DeleteSession)
		}
	}

	router.GET("/ws", wsHandler.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
