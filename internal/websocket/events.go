package websocket

import (
	"encoding/json"
	"time"
)

// MessageType имя события протокола
type MessageType string

const (
	// От клиента
	TypeJoinRoom    MessageType = "join-room"
	TypeSendMessage MessageType = "send-message"
	TypeTypingStart MessageType = "typing-start"
	TypeTypingStop  MessageType = "typing-stop"
	TypePong        MessageType = "pong"

	// От сервера
	TypeRoomFull       MessageType = "room-full"
	TypeReceiveMessage MessageType = "receive-message"
	TypeTypingUpdate   MessageType = "typing-update"
	TypeMessageError   MessageType = "message-error"
	TypePing           MessageType = "ping"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Encode упаковывает событие в конверт.
func Encode(msgType MessageType, data interface{}) ([]byte, error) {
	msg := Message{
		Type:      msgType,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = jsonData
	}

	return json.Marshal(msg)
}

// JoinRequest принимает и позиционную форму ["CODE", "alice"], и объект.
type JoinRequest struct {
	RoomCode string `json:"room_id"`
	UserName string `json:"user_name"`
}

func (r *JoinRequest) UnmarshalJSON(data []byte) error {
	var args []string
	if err := json.Unmarshal(data, &args); err == nil {
		if len(args) != 2 {
			return ErrInvalidMessage
		}
		r.RoomCode, r.UserName = args[0], args[1]
		return nil
	}

	type plain JoinRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return ErrInvalidMessage
	}
	*r = JoinRequest(p)
	return nil
}

type TypingUser struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type TypingUpdate struct {
	TypingUsers []TypingUser `json:"typingUsers"`
}
