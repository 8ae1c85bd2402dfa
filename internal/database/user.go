package database

import (
	"errors"

	"github.com/thereayou/roomchat/internal/models"
)

func (d *Database) CreateUser(user *models.User) error {
	return d.db.Create(user).Error
}

func (d *Database) GetUser(id string) (*models.User, error) {
	user := models.User{}
	if err := d.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (d *Database) FindUserByName(name string) (*models.User, error) {
	user := models.User{}
	if err := d.db.Where("user_name = ?", name).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

// SetUserOnline меняет флаг присутствия и возвращает обновлённого пользователя.
func (d *Database) SetUserOnline(name string, online bool) (*models.User, error) {
	res := d.db.Model(&models.User{}).Where("user_name = ?", name).Update("is_online", online)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return d.FindUserByName(name)
}

// SetUserRoom привязывает пользователя к комнате, создавая его при первом входе.
func (d *Database) SetUserRoom(name, roomCode string) (*models.User, error) {
	user, err := d.FindUserByName(name)
	if errors.Is(err, ErrNotFound) {
		user = &models.User{UserName: name, RoomCode: &roomCode}
		if err := d.CreateUser(user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	if err := d.db.Model(user).Update("room_code", roomCode).Error; err != nil {
		return nil, err
	}
	user.RoomCode = &roomCode
	return user, nil
}

func (d *Database) ClearUserRoom(name string) error {
	return d.db.Model(&models.User{}).Where("user_name = ?", name).Update("room_code", nil).Error
}
