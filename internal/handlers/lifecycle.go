package handlers

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/services"
	"github.com/thereayou/roomchat/internal/websocket"
)

// LifecycleController ведёт соединение по состояниям
// Unattached -> Attached -> Closed и синхронизирует флаг присутствия в базе.
// Регистрация в hub и флаг в базе независимы: сбой одного не откатывает другое.
type LifecycleController struct {
	hub    *websocket.Hub
	typing *websocket.TypingTracker
	store  services.ChatStore
}

func NewLifecycleController(hub *websocket.Hub, typing *websocket.TypingTracker, store services.ChatStore) *LifecycleController {
	return &LifecycleController{hub: hub, typing: typing, store: store}
}

// Join обрабатывает join-room. При переполнении клиент получает room-full и
// остаётся Unattached.
func (l *LifecycleController) Join(client *websocket.Client, roomCode, userName string) error {
	if roomCode == "" || userName == "" {
		return websocket.ErrInvalidMessage
	}
	if state := client.State(); state != websocket.StateUnattached {
		return fmt.Errorf("%w: state %s", ErrAlreadyJoined, state)
	}

	if err := l.hub.Join(client, roomCode); err != nil {
		if errors.Is(err, websocket.ErrRoomFull) {
			if emitErr := client.Emit(websocket.TypeRoomFull, roomFullText); emitErr != nil {
				log.Warn().Err(emitErr).Str("module", "handlers.lifecycle").Msg("emit room-full")
			}
		}
		return err
	}

	user, err := l.store.SetUserOnline(userName, true)
	if err != nil {
		// слот в комнате остаётся за соединением, пользователя нет
		client.Attach(roomCode, nil)
		return fmt.Errorf("presence update for %q: %w", userName, err)
	}

	client.Attach(roomCode, user)
	log.Info().Str("module", "handlers.lifecycle").Str("room", roomCode).Str("user", user.UserName).
		Str("conn", client.ID.String()).Msg("joined room")
	return nil
}

// Disconnect закрывает соединение. Очистка typing и таймера выполняется
// всегда, даже если не удалось снять флаг online.
func (l *LifecycleController) Disconnect(client *websocket.Client) {
	prev := client.MarkClosed()
	roomCode := client.RoomCode()
	user := client.User()

	if user != nil {
		if _, err := l.store.SetUserOnline(user.UserName, false); err != nil {
			log.Error().Err(err).Str("module", "handlers.lifecycle").Str("user", user.UserName).Msg("presence update on disconnect")
		}
	}

	l.hub.Unregister(client)

	if roomCode != "" {
		l.typing.StopTyping(client, roomCode)
	}
	l.typing.ClearTimer(client.ID)

	log.Info().Str("module", "handlers.lifecycle").Str("conn", client.ID.String()).
		Str("from", prev.String()).Msg("disconnected")
}
