package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/roomchat/internal/models"
)

// MessagePayload входящее send-message
type MessagePayload struct {
	Content  string        `json:"content"`
	Media    *models.Media `json:"media,omitempty"`
	SenderID string        `json:"senderId"`
}

// MessageResponse сообщение в том виде, в каком его видят клиенты
type MessageResponse struct {
	ID        uuid.UUID     `json:"id"`
	Content   string        `json:"content"`
	Media     *models.Media `json:"media"`
	RoomID    string        `json:"roomId"`
	SenderID  uuid.UUID     `json:"senderId"`
	CreatedAt time.Time     `json:"createdAt"`
	Sender    UserInfo      `json:"sender"`
}

type UserInfo struct {
	ID        uuid.UUID `json:"id"`
	UserName  string    `json:"user_name"`
	Image     string    `json:"image,omitempty"`
	IsOnline  bool      `json:"isOnline"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUserInfo(user *models.User) UserInfo {
	return UserInfo{
		ID:        user.ID,
		UserName:  user.UserName,
		Image:     user.Image,
		IsOnline:  user.IsOnline,
		UpdatedAt: user.UpdatedAt,
	}
}

// NewMessageResponse собирает ответ с отправителем и раскрытым вложением.
func NewMessageResponse(msg *models.Message) (MessageResponse, error) {
	media, err := msg.DecodeMedia()
	if err != nil {
		return MessageResponse{}, err
	}

	return MessageResponse{
		ID:        msg.ID,
		Content:   msg.Content,
		Media:     media,
		RoomID:    msg.RoomCode,
		SenderID:  msg.SenderID,
		CreatedAt: msg.CreatedAt,
		Sender:    NewUserInfo(&msg.Sender),
	}, nil
}
