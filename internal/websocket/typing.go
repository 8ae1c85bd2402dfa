package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/models"
)

// TypingEntry один печатающий пользователь в комнате.
type TypingEntry struct {
	UserID   uuid.UUID
	UserName string
	ConnID   uuid.UUID
}

// TypingTracker хранит, кто печатает в каждой комнате. Истечение по таймеру
// сервер не взводит: клиент сам присылает typing-stop, слот таймера только
// очищается.
type TypingTracker struct {
	hub *Hub

	mu     sync.Mutex
	rooms  map[string][]TypingEntry
	timers map[uuid.UUID]*time.Timer
}

func NewTypingTracker(hub *Hub) *TypingTracker {
	return &TypingTracker{
		hub:    hub,
		rooms:  make(map[string][]TypingEntry),
		timers: make(map[uuid.UUID]*time.Timer),
	}
}

// StartTyping заменяет прежнюю запись пользователя свежей и рассылает набор.
func (t *TypingTracker) StartTyping(client *Client, roomCode string, user *models.User) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := removeUser(t.rooms[roomCode], user.ID)
	t.rooms[roomCode] = append(entries, TypingEntry{
		UserID:   user.ID,
		UserName: user.UserName,
		ConnID:   client.ID,
	})

	t.clearTimerUnsafe(client.ID)
	t.broadcastUnsafe(roomCode, client.ID)
}

// StopTyping убирает пользователя соединения из набора комнаты.
func (t *TypingTracker) StopTyping(client *Client, roomCode string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, tracked := t.rooms[roomCode]
	if !tracked {
		t.clearTimerUnsafe(client.ID)
		return
	}

	if user := client.User(); user != nil {
		entries = removeUser(entries, user.ID)
		if len(entries) == 0 {
			delete(t.rooms, roomCode)
		} else {
			t.rooms[roomCode] = entries
		}
	}

	t.clearTimerUnsafe(client.ID)
	t.broadcastUnsafe(roomCode, client.ID)
}

// Broadcast рассылает текущий набор всей комнате. exclude принимается, но
// получателей не сужает: печатающий тоже получает обновление.
func (t *TypingTracker) Broadcast(roomCode string, exclude uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.broadcastUnsafe(roomCode, exclude)
}

func (t *TypingTracker) broadcastUnsafe(roomCode string, _ uuid.UUID) {
	update := TypingUpdate{TypingUsers: t.snapshotUnsafe(roomCode)}
	if err := t.hub.EmitToRoom(roomCode, TypeTypingUpdate, update); err != nil {
		log.Error().Err(err).Str("module", "websocket.typing").Str("room", roomCode).Msg("typing broadcast")
	}
}

// ClearTimer отменяет и забывает отложенный таймер соединения.
func (t *TypingTracker) ClearTimer(connID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearTimerUnsafe(connID)
}

func (t *TypingTracker) clearTimerUnsafe(connID uuid.UUID) {
	if timer, ok := t.timers[connID]; ok {
		timer.Stop()
		delete(t.timers, connID)
	}
}

// TypingUsers снимок набора комнаты, пустой срез для неотслеживаемой комнаты.
func (t *TypingTracker) TypingUsers(roomCode string) []TypingUser {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotUnsafe(roomCode)
}

func (t *TypingTracker) snapshotUnsafe(roomCode string) []TypingUser {
	entries := t.rooms[roomCode]
	users := make([]TypingUser, 0, len(entries))
	for _, e := range entries {
		users = append(users, TypingUser{UserID: e.UserID.String(), UserName: e.UserName})
	}
	return users
}

// Tracked есть ли у комнаты ключ в карте
func (t *TypingTracker) Tracked(roomCode string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.rooms[roomCode]
	return ok
}

func removeUser(entries []TypingEntry, userID uuid.UUID) []TypingEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.UserID != userID {
			out = append(out, e)
		}
	}
	return out
}
