package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/cache"
	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"golang.org/x/sync/singleflight"
)

type HTTPMessageHandler struct {
	db      *database.Database
	history cache.History
	sf      singleflight.Group
}

func NewHTTPMessageHandler(db *database.Database, history cache.History) *HTTPMessageHandler {
	return &HTTPMessageHandler{db: db, history: history}
}

// ListChat отдаёт историю комнаты по возрастанию времени
func (h *HTTPMessageHandler) ListChat(c *gin.Context) {
	roomCode := c.Query("room_id")
	if roomCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id is required"})
		return
	}

	if _, err := h.db.FindRoomByCode(roomCode); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	ctx := c.Request.Context()
	if messages, ok := h.history.Get(ctx, roomCode); ok {
		c.JSON(http.StatusOK, gin.H{"message": "Room messages retrieved successfully", "data": messages})
		return
	}

	// Параллельные промахи по одной комнате идут в базу один раз.
	// Поколение читается до загрузки, иначе снимок мог бы пережить Invalidate.
	loadCtx := context.WithoutCancel(ctx)
	val, err, _ := h.sf.Do(roomCode, func() (interface{}, error) {
		gen, cacheable := h.history.Generation(loadCtx, roomCode)
		messages, err := h.loadHistory(roomCode)
		if err != nil {
			return nil, err
		}
		if cacheable {
			h.history.Set(loadCtx, roomCode, gen, messages)
		}
		return messages, nil
	})
	if err != nil {
		log.Error().Err(err).Str("module", "handlers.http_message").Str("room", roomCode).Msg("list chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	messages := val.([]dto.MessageResponse)
	c.JSON(http.StatusOK, gin.H{"message": "Room messages retrieved successfully", "data": messages})
}

func (h *HTTPMessageHandler) loadHistory(roomCode string) ([]dto.MessageResponse, error) {
	messages, err := h.db.ListRoomMessages(roomCode)
	if err != nil {
		return nil, err
	}

	result := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		resp, err := dto.NewMessageResponse(&messages[i])
		if err != nil {
			return nil, err
		}
		result = append(result, resp)
	}
	return result, nil
}
