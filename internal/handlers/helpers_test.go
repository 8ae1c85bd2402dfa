package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/models"
	"github.com/thereayou/roomchat/internal/websocket"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	d := database.NewDatabase(db)
	require.NoError(t, d.Migrate())
	return d
}

// seedRoom создаёт комнату и участников с привязкой к ней.
func seedRoom(t *testing.T, d *database.Database, name, code string, members ...string) map[string]*models.User {
	t.Helper()
	require.NoError(t, d.CreateRoom(&models.Room{Name: name, Code: code}))

	users := make(map[string]*models.User, len(members))
	for _, m := range members {
		u, err := d.AddUserToRoom(m, code, 100)
		require.NoError(t, err)
		users[m] = u
	}
	return users
}

func newClient(hub *websocket.Hub) *websocket.Client {
	c := websocket.NewClient(hub, nil)
	hub.Register(c)
	return c
}

func drain(t *testing.T, c *websocket.Client) []websocket.Message {
	t.Helper()
	var out []websocket.Message
	for {
		select {
		case frame, ok := <-c.Send:
			if !ok {
				return out
			}
			var msg websocket.Message
			require.NoError(t, json.Unmarshal(frame, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func ofType(msgs []websocket.Message, msgType websocket.MessageType) []websocket.Message {
	var out []websocket.Message
	for _, m := range msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func decodeString(t *testing.T, msg websocket.Message) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(msg.Data, &s))
	return s
}

func frame(t *testing.T, msgType websocket.MessageType, data interface{}) *websocket.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &websocket.Message{Type: msgType, Data: raw, Timestamp: time.Now()}
}

// fakeStore хранилище в памяти с управляемыми сбоями
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	messages []*models.Message

	onlineErr  error
	offlineErr error
	getErr     error
	createErr  error
}

func newFakeStore(names ...string) *fakeStore {
	s := &fakeStore{users: map[string]*models.User{}}
	for _, n := range names {
		s.users[n] = &models.User{ID: uuid.New(), UserName: n}
	}
	return s
}

func (s *fakeStore) GetUser(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, u := range s.users {
		if u.ID.String() == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) SetUserOnline(name string, online bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if online && s.onlineErr != nil {
		return nil, s.onlineErr
	}
	if !online && s.offlineErr != nil {
		return nil, s.offlineErr
	}
	u, ok := s.users[name]
	if !ok {
		return nil, database.ErrNotFound
	}
	u.IsOnline = online
	cp := *u
	return &cp, nil
}

func (s *fakeStore) CreateMessage(message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	message.ID = uuid.New()
	message.CreatedAt = time.Now()
	for _, u := range s.users {
		if u.ID == message.SenderID {
			message.Sender = *u
		}
	}
	s.messages = append(s.messages, message)
	return nil
}

func (s *fakeStore) online(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[name].IsOnline
}

// recordingHistory кеш в памяти с поколениями, который запоминает обращения
type recordingHistory struct {
	mu          sync.Mutex
	entries     map[string][]dto.MessageResponse
	gens        map[string]int64
	sets        int
	dropped     int
	invalidated []string

	// beforeSet вызывается без блокировки прямо перед проверкой поколения
	beforeSet func()
}

func newRecordingHistory() *recordingHistory {
	return &recordingHistory{
		entries: map[string][]dto.MessageResponse{},
		gens:    map[string]int64{},
	}
}

func (h *recordingHistory) Get(_ context.Context, roomCode string) ([]dto.MessageResponse, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs, ok := h.entries[roomCode]
	return msgs, ok
}

func (h *recordingHistory) Generation(_ context.Context, roomCode string) (int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gens[roomCode], true
}

func (h *recordingHistory) Set(_ context.Context, roomCode string, gen int64, messages []dto.MessageResponse) {
	if h.beforeSet != nil {
		h.beforeSet()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.gens[roomCode] != gen {
		h.dropped++
		return
	}
	h.entries[roomCode] = messages
	h.sets++
}

func (h *recordingHistory) Invalidate(roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gens[roomCode]++
	delete(h.entries, roomCode)
	h.invalidated = append(h.invalidated, roomCode)
}
