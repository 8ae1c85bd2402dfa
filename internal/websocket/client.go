package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/models"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер сообщения
	maxMessageSize = 512 * 1024 // 512KB

	sendBuffer = 256
)

// State жизненный цикл соединения: Unattached -> Attached -> Closed.
type State int

const (
	StateUnattached State = iota
	StateAttached
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateAttached:
		return "attached"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ClientMessageHandler обрабатывает события одного соединения.
type ClientMessageHandler interface {
	HandleMessage(client *Client, msg *Message) error
	HandleDisconnect(client *Client)
}

type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub

	mu       sync.RWMutex
	roomCode string
	user     *models.User
	state    State

	sendMu sync.RWMutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New(),
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		Hub:  hub,
	}
}

func (c *Client) RoomCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

func (c *Client) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Attach запоминает комнату и пользователя. user может быть nil, если
// обновление присутствия не удалось.
func (c *Client) Attach(roomCode string, user *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = roomCode
	c.user = user
	c.state = StateAttached
}

// MarkClosed переводит соединение в Closed и возвращает прежнее состояние.
func (c *Client) MarkClosed() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.state
	c.state = StateClosed
	return prev
}

// TrySend кладёт кадр в очередь без блокировки.
func (c *Client) TrySend(data []byte) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) Emit(msgType MessageType, data interface{}) error {
	frame, err := Encode(msgType, data)
	if err != nil {
		return err
	}
	return c.TrySend(frame)
}

// closeSend закрывает очередь ровно один раз, WritePump после этого выходит.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ReadPump читает сообщения от клиента
func (c *Client) ReadPump(handler ClientMessageHandler) {
	defer func() {
		if handler != nil {
			handler.HandleDisconnect(c)
		} else {
			c.Hub.Unregister(c)
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("module", "websocket.client").Str("conn", c.ID.String()).Msg("read error")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Str("module", "websocket.client").Str("conn", c.ID.String()).Msg("bad json")
			continue
		}

		if msg.Type == TypePong || handler == nil {
			continue
		}

		c.dispatch(handler, &msg)
	}
}

// dispatch изолирует обработчик: ни ошибка, ни паника не рвут соединение.
func (c *Client) dispatch(handler ClientMessageHandler, msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "websocket.client").Str("conn", c.ID.String()).
				Str("type", string(msg.Type)).Interface("panic", r).Msg("handler panic")
		}
	}()

	if err := handler.HandleMessage(c, msg); err != nil {
		log.Warn().Err(err).Str("module", "websocket.client").Str("conn", c.ID.String()).
			Str("type", string(msg.Type)).Msg("error handling message")
	}
}

// WritePump отправляет сообщения клиенту
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Str("module", "websocket.client").Str("conn", c.ID.String()).Msg("write error")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
