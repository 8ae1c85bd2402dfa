package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/models"
	"github.com/thereayou/roomchat/internal/services"
	"github.com/thereayou/roomchat/internal/websocket"
)

// MessageHandler разбирает события соединения и пересылает сообщения в комнату.
type MessageHandler struct {
	store     services.ChatStore
	hub       *websocket.Hub
	typing    *websocket.TypingTracker
	history   services.HistoryInvalidator
	lifecycle *LifecycleController
}

func NewMessageHandler(
	store services.ChatStore,
	hub *websocket.Hub,
	typing *websocket.TypingTracker,
	history services.HistoryInvalidator,
) *MessageHandler {
	return &MessageHandler{
		store:     store,
		hub:       hub,
		typing:    typing,
		history:   history,
		lifecycle: NewLifecycleController(hub, typing, store),
	}
}

func (h *MessageHandler) HandleMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeJoinRoom:
		var req websocket.JoinRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return err
		}
		return h.lifecycle.Join(client, req.RoomCode, req.UserName)

	case websocket.TypeSendMessage:
		var payload dto.MessagePayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return websocket.ErrInvalidMessage
		}
		_, err := h.Send(client, payload)
		return err

	case websocket.TypeTypingStart:
		roomCode, user := client.RoomCode(), client.User()
		if roomCode != "" && user != nil {
			h.typing.StartTyping(client, roomCode, user)
		}
		return nil

	case websocket.TypeTypingStop:
		if roomCode := client.RoomCode(); roomCode != "" {
			h.typing.StopTyping(client, roomCode)
		}
		return nil

	default:
		log.Warn().Str("module", "handlers.message").Str("type", string(msg.Type)).Msg("unknown message type")
		return nil
	}
}

func (h *MessageHandler) HandleDisconnect(client *websocket.Client) {
	h.lifecycle.Disconnect(client)
}

// Send сохраняет сообщение и рассылает его всей комнате, включая отправителя.
// Без комнаты сообщение молча отбрасывается.
func (h *MessageHandler) Send(client *websocket.Client, payload dto.MessagePayload) (*dto.MessageResponse, error) {
	roomCode := client.RoomCode()
	if roomCode == "" {
		log.Info().Str("module", "handlers.message").Str("conn", client.ID.String()).Msg("user not in a room, message not sent")
		return nil, nil
	}

	sender, err := h.resolveSender(payload.SenderID)
	if err != nil {
		text := sendFailedText
		if errors.Is(err, ErrSenderNotFound) {
			text = senderNotFoundText
		}
		h.emitError(client, text)
		return nil, err
	}

	encodedMedia, err := models.EncodeMedia(payload.Media)
	if err != nil {
		h.emitError(client, sendFailedText)
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	message := &models.Message{
		Content:  payload.Content,
		Media:    encodedMedia,
		RoomCode: roomCode,
		SenderID: sender.ID,
	}
	if err := h.store.CreateMessage(message); err != nil {
		log.Error().Err(err).Str("module", "handlers.message").Str("room", roomCode).Msg("failed to save message")
		h.emitError(client, sendFailedText)
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	h.history.Invalidate(roomCode)

	h.typing.StopTyping(client, roomCode)

	response, err := dto.NewMessageResponse(message)
	if err != nil {
		h.emitError(client, sendFailedText)
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if err := h.hub.EmitToRoom(roomCode, websocket.TypeReceiveMessage, response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (h *MessageHandler) resolveSender(senderID string) (*models.User, error) {
	if _, err := uuid.Parse(senderID); err != nil {
		return nil, ErrSenderNotFound
	}

	sender, err := h.store.GetUser(senderID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrSenderNotFound
		}
		log.Error().Err(err).Str("module", "handlers.message").Msg("sender lookup")
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return sender, nil
}

func (h *MessageHandler) emitError(client *websocket.Client, text string) {
	if err := client.Emit(websocket.TypeMessageError, text); err != nil {
		log.Warn().Err(err).Str("module", "handlers.message").Str("conn", client.ID.String()).Msg("emit message-error")
	}
}
