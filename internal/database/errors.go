package database

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateName = errors.New("room name already exists")
	ErrRoomFull      = errors.New("room is full")
	ErrNotInRoom     = errors.New("user not found in this room")
)

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
