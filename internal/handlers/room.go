package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/models"
)

// CodeGenerator выдаёт внешний код новой комнаты
type CodeGenerator interface {
	New() string
}

type RoomHandler struct {
	db         *database.Database
	codes      CodeGenerator
	maxMembers int
}

func NewRoomHandler(db *database.Database, codes CodeGenerator, maxMembers int) *RoomHandler {
	return &RoomHandler{db: db, codes: codes, maxMembers: maxMembers}
}

// CreateRoom создает новую комнату
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	room := &models.Room{
		Name: req.Name,
		Code: h.codes.New(),
	}

	if err := h.db.CreateRoom(room); err != nil {
		if errors.Is(err, database.ErrDuplicateName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please choose another room name, it already exists."})
			return
		}
		log.Error().Err(err).Str("module", "handlers.room").Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Room created Successfully.",
		"data":    dto.NewRoomResponse(room),
	})
}

// UpdateRoomUser добавляет (mode 1) или убирает (mode 2) пользователя.
// Лимит здесь считается по сохранённым участникам, а не по соединениям.
func (h *RoomHandler) UpdateRoomUser(c *gin.Context) {
	var req dto.UpdateRoomUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid parameters"})
		return
	}

	switch req.Mode {
	case dto.ModeAdd:
		user, err := h.db.AddUserToRoom(req.Name, req.RoomID, h.maxMembers)
		switch {
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		case errors.Is(err, database.ErrRoomFull):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Room is full (max 10 users)"})
			return
		case err != nil:
			log.Error().Err(err).Str("module", "handlers.room").Msg("add user to room")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add user to room"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "User added to room",
			"data":    dto.MemberResponse{UserInfo: dto.NewUserInfo(user), RoomID: user.RoomCode},
		})

	case dto.ModeRemove:
		err := h.db.RemoveUserFromRoom(req.Name, req.RoomID)
		switch {
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		case errors.Is(err, database.ErrNotInRoom):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found in this room"})
			return
		case err != nil:
			log.Error().Err(err).Str("module", "handlers.room").Msg("remove user from room")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove user from room"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "User removed from room"})
	}
}

// ListGroupMembers получает список участников комнаты
func (h *RoomHandler) ListGroupMembers(c *gin.Context) {
	roomCode := c.Query("room_id")
	if roomCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id is required"})
		return
	}

	room, err := h.db.FindRoomByCodeWithUsers(roomCode)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get room"})
		return
	}

	users := make([]dto.UserInfo, len(room.Users))
	for i := range room.Users {
		users[i] = dto.NewUserInfo(&room.Users[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Room members retrieved successfully",
		"data": dto.RoomMembersResponse{
			RoomID: room.Code,
			Name:   room.Name,
			Users:  users,
		},
	})
}
