package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/roomchat/internal/websocket"
)

type HealthHandler struct {
	hub *websocket.Hub
}

func NewHealthHandler(hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{hub: hub}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"rooms_online": h.hub.ActiveRooms(),
	})
}
