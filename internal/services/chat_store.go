package services

import "github.com/thereayou/roomchat/internal/models"

// ChatStore то подмножество хранилища, которое нужно realtime-слою.
type ChatStore interface {
	GetUser(id string) (*models.User, error)
	SetUserOnline(name string, online bool) (*models.User, error)
	CreateMessage(message *models.Message) error
}

// HistoryInvalidator сбрасывает закешированную историю комнаты.
type HistoryInvalidator interface {
	Invalidate(roomCode string)
}
