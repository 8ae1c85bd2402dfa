package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultRoomCapacity предел одновременных соединений в комнате
const DefaultRoomCapacity = 10

// Hub реестр живых соединений и их комнат. Лимит комнаты считается по
// соединениям, а не по сохранённым участникам.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты в комнатах
	rooms map[string]map[uuid.UUID]*Client

	capacity int

	mu      sync.RWMutex
	stopped bool

	// Живые ReadPump: Wait ждёт их HandleDisconnect
	pumps sync.WaitGroup

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый Hub
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultRoomCapacity
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:  make(map[uuid.UUID]*Client),
		rooms:    make(map[string]map[uuid.UUID]*Client),
		capacity: capacity,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run шлёт прикладной ping всем клиентам, пока hub не остановлен
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub и закрывает все соединения
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopped = true
	for _, client := range h.clients {
		client.closeSend()
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}

// Register регистрирует нового клиента. false, если hub уже остановлен.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registerUnsafe(client)
}

func (h *Hub) registerUnsafe(client *Client) bool {
	if h.stopped {
		return false
	}
	h.clients[client.ID] = client
	log.Debug().Str("module", "websocket.hub").Str("conn", client.ID.String()).Msg("client registered")
	return true
}

// Serve регистрирует соединение и запускает его насосы. После Stop новые
// соединения не принимаются.
func (h *Hub) Serve(client *Client, handler ClientMessageHandler) bool {
	h.mu.Lock()
	ok := h.registerUnsafe(client)
	if ok {
		h.pumps.Add(1)
	}
	h.mu.Unlock()

	if !ok {
		client.closeSend()
		if client.Conn != nil {
			client.Conn.Close()
		}
		return false
	}

	go client.WritePump()
	go func() {
		defer h.pumps.Done()
		client.ReadPump(handler)
	}()
	return true
}

// Wait ждёт, пока все ReadPump отработают отключение, или отмены ctx.
func (h *Hub) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unregister убирает клиента из комнаты и закрывает его очередь.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client)
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		log.Debug().Str("module", "websocket.hub").Str("conn", client.ID.String()).Msg("client unregistered")
	}
	client.closeSend()
}

// Join подключает клиента к комнате, если в ней меньше capacity соединений.
// Проверка и добавление выполняются под одной блокировкой.
func (h *Hub) Join(client *Client, roomCode string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[roomCode]
	if _, already := room[client.ID]; already {
		return nil
	}
	if len(room) >= h.capacity {
		log.Info().Str("module", "websocket.hub").Str("room", roomCode).Int("size", len(room)).Msg("room full")
		return ErrRoomFull
	}

	h.removeFromRoomUnsafe(client)
	if room == nil {
		room = make(map[uuid.UUID]*Client)
		h.rooms[roomCode] = room
	}
	room[client.ID] = client
	h.clients[client.ID] = client

	log.Info().Str("module", "websocket.hub").Str("room", roomCode).Str("conn", client.ID.String()).Int("size", len(room)).Msg("joined room")
	return nil
}

func (h *Hub) removeFromRoomUnsafe(client *Client) {
	for code, room := range h.rooms {
		if _, ok := room[client.ID]; !ok {
			continue
		}
		delete(room, client.ID)
		if len(room) == 0 {
			delete(h.rooms, code)
		}
	}
}

// EmitToRoom рассылает событие всем соединениям комнаты, включая отправителя.
func (h *Hub) EmitToRoom(roomCode string, msgType MessageType, data interface{}) error {
	frame, err := Encode(msgType, data)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[roomCode] {
		if err := client.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "websocket.hub").Str("conn", client.ID.String()).Msg("drop frame")
		}
	}
	return nil
}

func (h *Hub) RoomSize(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}

// InRoom проверяет, подключено ли соединение к комнате
func (h *Hub) InRoom(client *Client, roomCode string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomCode][client.ID]
	return ok
}

// ActiveRooms число комнат хотя бы с одним соединением
func (h *Hub) ActiveRooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) ping() {
	frame, err := Encode(TypePing, nil)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		_ = client.TrySend(frame)
	}
}
