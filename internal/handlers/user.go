package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers/dto"
)

type UserHandler struct {
	db *database.Database
}

func NewUserHandler(db *database.Database) *UserHandler {
	return &UserHandler{db: db}
}

// GetUser возвращает пользователя по ID. Клиент берёт отсюда senderId.
func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.db.GetUser(userID)
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": dto.MemberResponse{UserInfo: dto.NewUserInfo(user), RoomID: user.RoomCode},
	})
}

// FindUser поиск пользователя по user_name
func (h *UserHandler) FindUser(c *gin.Context) {
	name := c.Query("user_name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_name is required"})
		return
	}

	user, err := h.db.FindUserByName(name)
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": dto.MemberResponse{UserInfo: dto.NewUserInfo(user), RoomID: user.RoomCode},
	})
}

func (h *UserHandler) notFoundOr500(c *gin.Context, err error) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
}
