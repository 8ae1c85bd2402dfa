package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
)

type CreateRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateRoomUserRequest mode 1 добавляет, mode 2 удаляет
type UpdateRoomUserRequest struct {
	Name   string `json:"name" binding:"required"`
	RoomID string `json:"room_id" binding:"required"`
	Mode   int    `json:"mode" binding:"required,oneof=1 2"`
}

const (
	ModeAdd    = 1
	ModeRemove = 2
)

type RoomResponse struct {
	ID        uuid.UUID `json:"id"`
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type RoomMembersResponse struct {
	RoomID string     `json:"room_id"`
	Name   string     `json:"name"`
	Users  []UserInfo `json:"users"`
}

type MemberResponse struct {
	UserInfo
	RoomID *string `json:"roomId"`
}

func NewRoomResponse(room *models.Room) RoomResponse {
	return RoomResponse{
		ID:        room.ID,
		RoomID:    room.Code,
		Name:      room.Name,
		CreatedAt: room.CreatedAt,
	}
}
