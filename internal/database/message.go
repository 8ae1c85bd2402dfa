package database

import (
	"github.com/thereayou/roomchat/internal/models"
)

// CreateMessage сохраняет сообщение и подгружает отправителя.
func (d *Database) CreateMessage(message *models.Message) error {
	if err := d.db.Create(message).Error; err != nil {
		return err
	}
	return d.db.First(&message.Sender, "id = ?", message.SenderID).Error
}

// ListRoomMessages возвращает историю комнаты, старые сообщения первыми
func (d *Database) ListRoomMessages(roomCode string) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.
		Where("room_code = ?", roomCode).
		Order("created_at ASC").
		Preload("Sender").
		Find(&messages).Error

	return messages, err
}
