package handlers

import "errors"

var (
	ErrSenderNotFound = errors.New("sender not found")
	ErrAlreadyJoined  = errors.New("connection already joined a room")
	ErrSendFailed     = errors.New("failed to send message")
)

// Тексты, которые видит клиент
const (
	roomFullText       = "Room is full"
	senderNotFoundText = "Sender not found"
	sendFailedText     = "Failed to send message"
)
