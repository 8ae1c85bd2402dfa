package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/thereayou/roomchat/internal/config"
	"github.com/thereayou/roomchat/internal/handlers"
	"github.com/thereayou/roomchat/internal/middleware"
)

type routeHandlers struct {
	rooms    *handlers.RoomHandler
	users    *handlers.UserHandler
	messages *handlers.HTTPMessageHandler
	uploads  *handlers.UploadHandler
	ws       *handlers.WebSocketHandler
	health   *handlers.HealthHandler
}

func newRouter(cfg *config.Config, h routeHandlers) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || cfg.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	APIEndpoints(r, h)
	return r
}

func APIEndpoints(r *gin.Engine, h routeHandlers) {
	// Комнаты
	r.POST("/create-room", h.rooms.CreateRoom)
	r.POST("/update-room-user", h.rooms.UpdateRoomUser)
	r.GET("/list-group-members", h.rooms.ListGroupMembers)

	// Пользователи
	r.GET("/users", h.users.FindUser)
	r.GET("/users/:id", h.users.GetUser)

	// История и вложения
	r.GET("/list-chat", h.messages.ListChat)
	r.POST("/upload", h.uploads.Upload)
	r.GET("/media/:id/:name", h.uploads.Download)

	// Realtime
	r.GET("/ws", h.ws.HandleWebSocket)

	r.GET("/healthz", h.health.Health)
}
