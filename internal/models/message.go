package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Media описывает вложение сообщения, хранится в колонке media как JSON.
type Media struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
}

type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Content   string    `gorm:"not null;default:''"`
	Media     *string
	RoomCode  string    `gorm:"index;not null"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time `gorm:"index"`

	// Связи
	Sender User `gorm:"foreignKey:SenderID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// EncodeMedia сериализует вложение для хранения. nil остаётся nil.
func EncodeMedia(media *Media) (*string, error) {
	if media == nil {
		return nil, nil
	}
	data, err := json.Marshal(media)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

// DecodeMedia восстанавливает вложение из сохранённой строки.
func (m *Message) DecodeMedia() (*Media, error) {
	if m.Media == nil || *m.Media == "" {
		return nil, nil
	}
	var media Media
	if err := json.Unmarshal([]byte(*m.Media), &media); err != nil {
		return nil, err
	}
	return &media, nil
}
