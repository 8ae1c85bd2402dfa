package database

import (
	"errors"

	"github.com/thereayou/roomchat/internal/models"
)

func (d *Database) CreateRoom(room *models.Room) error {
	if _, err := d.FindRoomByName(room.Name); err == nil {
		return ErrDuplicateName
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return d.db.Create(room).Error
}

func (d *Database) FindRoomByName(name string) (*models.Room, error) {
	var room models.Room
	if err := d.db.First(&room, "name = ?", name).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &room, nil
}

func (d *Database) FindRoomByCode(code string) (*models.Room, error) {
	var room models.Room
	if err := d.db.First(&room, "code = ?", code).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &room, nil
}

func (d *Database) FindRoomByCodeWithUsers(code string) (*models.Room, error) {
	var room models.Room
	if err := d.db.Preload("Users").First(&room, "code = ?", code).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &room, nil
}

// AddUserToRoom проверяет лимит сохранённых участников и привязывает пользователя.
func (d *Database) AddUserToRoom(name, code string, maxMembers int) (*models.User, error) {
	room, err := d.FindRoomByCodeWithUsers(code)
	if err != nil {
		return nil, err
	}

	if len(room.Users) >= maxMembers {
		return nil, ErrRoomFull
	}

	return d.SetUserRoom(name, room.Code)
}

func (d *Database) RemoveUserFromRoom(name, code string) error {
	room, err := d.FindRoomByCode(code)
	if err != nil {
		return err
	}

	user, err := d.FindUserByName(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotInRoom
		}
		return err
	}

	if user.RoomCode == nil || *user.RoomCode != room.Code {
		return ErrNotInRoom
	}

	return d.ClearUserRoom(name)
}
