package handlers

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/roomchat/internal/handlers/dto"
	"github.com/thereayou/roomchat/internal/models"
	"github.com/thereayou/roomchat/internal/websocket"
)

func decodeMessage(t *testing.T, msg websocket.Message) dto.MessageResponse {
	t.Helper()
	var resp dto.MessageResponse
	require.NoError(t, json.Unmarshal(msg.Data, &resp))
	return resp
}

func TestSend_TeamScenario(t *testing.T) {
	db := setupTestDB(t)
	users := seedRoom(t, db, "Team", "TEAM1", "alice", "bob")
	history := newRecordingHistory()

	hub := websocket.NewHub(10)
	typing := websocket.NewTypingTracker(hub)
	h := NewMessageHandler(db, hub, typing, history)

	alice, bob := newClient(hub), newClient(hub)
	outsider := newClient(hub)
	require.NoError(t, h.HandleMessage(alice, frame(t, websocket.TypeJoinRoom, []string{"TEAM1", "alice"})))
	require.NoError(t, h.HandleMessage(bob, frame(t, websocket.TypeJoinRoom, map[string]string{"room_id": "TEAM1", "user_name": "bob"})))

	require.NoError(t, h.HandleMessage(alice, frame(t, websocket.TypeTypingStart, nil)))
	assert.Len(t, typing.TypingUsers("TEAM1"), 1)
	drain(t, alice)
	drain(t, bob)

	payload := map[string]interface{}{"content": "hi", "senderId": users["alice"].ID.String()}
	require.NoError(t, h.HandleMessage(alice, frame(t, websocket.TypeSendMessage, payload)))

	for _, c := range []*websocket.Client{alice, bob} {
		frames := drain(t, c)

		updates := ofType(frames, websocket.TypeTypingUpdate)
		require.Len(t, updates, 1)
		assert.JSONEq(t, `{"typingUsers":[]}`, string(updates[0].Data))

		received := ofType(frames, websocket.TypeReceiveMessage)
		require.Len(t, received, 1)
		msg := decodeMessage(t, received[0])
		assert.Equal(t, "hi", msg.Content)
		assert.Equal(t, "TEAM1", msg.RoomID)
		assert.Equal(t, users["alice"].ID, msg.SenderID)
		assert.Equal(t, "alice", msg.Sender.UserName)
		assert.Nil(t, msg.Media)
	}
	assert.Empty(t, drain(t, outsider))

	stored, err := db.ListRoomMessages("TEAM1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "hi", stored[0].Content)
	assert.Equal(t, []string{"TEAM1"}, history.invalidated)
	assert.False(t, typing.Tracked("TEAM1"))
}

func TestSend_WithMedia(t *testing.T) {
	store := newFakeStore("alice")
	hub := websocket.NewHub(10)
	h := NewMessageHandler(store, hub, websocket.NewTypingTracker(hub), newRecordingHistory())

	c := newClient(hub)
	require.NoError(t, h.lifecycle.Join(c, "R", "alice"))

	resp, err := h.Send(c, dto.MessagePayload{
		Content:  "look",
		SenderID: store.users["alice"].ID.String(),
		Media:    &models.Media{URL: "http://x/media/1/cat.png", Type: "image/png", Name: "cat.png"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Media)
	assert.Equal(t, "cat.png", resp.Media.Name)

	received := ofType(drain(t, c), websocket.TypeReceiveMessage)
	require.Len(t, received, 1)
	assert.Equal(t, "image/png", decodeMessage(t, received[0]).Media.Type)
}

func TestSend_NoRoomIsDropped(t *testing.T) {
	store := newFakeStore("alice")
	history := newRecordingHistory()
	hub := websocket.NewHub(10)
	h := NewMessageHandler(store, hub, websocket.NewTypingTracker(hub), history)

	c := newClient(hub)
	resp, err := h.Send(c, dto.MessagePayload{Content: "hi", SenderID: store.users["alice"].ID.String()})

	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Empty(t, drain(t, c))
	assert.Empty(t, store.messages)
	assert.Empty(t, history.invalidated)
}

func TestSend_UnknownSender(t *testing.T) {
	for name, senderID := range map[string]string{
		"not a uuid": "nope",
		"missing":    "9b2e4c1e-8a55-4a36-9d6b-0b3f1c2d7e10",
	} {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore("alice", "bob")
			hub := websocket.NewHub(10)
			h := NewMessageHandler(store, hub, websocket.NewTypingTracker(hub), newRecordingHistory())

			alice, bob := newClient(hub), newClient(hub)
			require.NoError(t, h.lifecycle.Join(alice, "R", "alice"))
			require.NoError(t, h.lifecycle.Join(bob, "R", "bob"))

			_, err := h.Send(alice, dto.MessagePayload{Content: "hi", SenderID: senderID})
			require.ErrorIs(t, err, ErrSenderNotFound)

			errs := ofType(drain(t, alice), websocket.TypeMessageError)
			require.Len(t, errs, 1)
			assert.Equal(t, "Sender not found", decodeString(t, errs[0]))
			assert.Empty(t, drain(t, bob))
			assert.Empty(t, store.messages)
		})
	}
}

func TestSend_LookupFailure(t *testing.T) {
	store := newFakeStore("alice")
	hub := websocket.NewHub(10)
	h := NewMessageHandler(store, hub, websocket.NewTypingTracker(hub), newRecordingHistory())

	c := newClient(hub)
	require.NoError(t, h.lifecycle.Join(c, "R", "alice"))
	store.getErr = errors.New("connection reset")

	_, err := h.Send(c, dto.MessagePayload{Content: "hi", SenderID: store.users["alice"].ID.String()})
	require.ErrorIs(t, err, ErrSendFailed)

	errs := ofType(drain(t, c), websocket.TypeMessageError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Failed to send message", decodeString(t, errs[0]))
}

func TestSend_PersistFailure(t *testing.T) {
	store := newFakeStore("alice", "bob")
	store.createErr = errors.New("disk full")
	history := newRecordingHistory()
	hub := websocket.NewHub(10)
	typing := websocket.NewTypingTracker(hub)
	h := NewMessageHandler(store, hub, typing, history)

	alice, bob := newClient(hub), newClient(hub)
	require.NoError(t, h.lifecycle.Join(alice, "R", "alice"))
	require.NoError(t, h.lifecycle.Join(bob, "R", "bob"))
	typing.StartTyping(alice, "R", alice.User())
	drain(t, alice)
	drain(t, bob)

	_, err := h.Send(alice, dto.MessagePayload{Content: "hi", SenderID: store.users["alice"].ID.String()})
	require.ErrorIs(t, err, ErrSendFailed)

	frames := drain(t, alice)
	require.Len(t, ofType(frames, websocket.TypeMessageError), 1)
	assert.Empty(t, ofType(frames, websocket.TypeReceiveMessage))
	assert.Empty(t, drain(t, bob))
	assert.Empty(t, history.invalidated)
	// набор не трогаем, пока сообщение не сохранено
	assert.Len(t, typing.TypingUsers("R"), 1)
}

func TestHandleMessage_TypingWithoutUserIgnored(t *testing.T) {
	store := newFakeStore("alice")
	store.onlineErr = errors.New("db down")
	hub := websocket.NewHub(10)
	typing := websocket.NewTypingTracker(hub)
	h := NewMessageHandler(store, hub, typing, newRecordingHistory())

	c := newClient(hub)
	require.Error(t, h.HandleMessage(c, frame(t, websocket.TypeJoinRoom, []string{"R", "alice"})))

	require.NoError(t, h.HandleMessage(c, frame(t, websocket.TypeTypingStart, nil)))
	assert.False(t, typing.Tracked("R"))
	assert.Empty(t, drain(t, c))
}

func TestHandleMessage_InvalidFrames(t *testing.T) {
	store := newFakeStore("alice")
	hub := websocket.NewHub(10)
	h := NewMessageHandler(store, hub, websocket.NewTypingTracker(hub), newRecordingHistory())
	c := newClient(hub)

	err := h.HandleMessage(c, frame(t, websocket.TypeJoinRoom, []string{"only-room"}))
	assert.ErrorIs(t, err, websocket.ErrInvalidMessage)

	err = h.HandleMessage(c, frame(t, websocket.TypeSendMessage, []int{1, 2}))
	assert.ErrorIs(t, err, websocket.ErrInvalidMessage)

	assert.NoError(t, h.HandleMessage(c, frame(t, "shout", "hello")))
	assert.Equal(t, websocket.StateUnattached, c.State())
}
