package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub) *Client {
	c := NewClient(h, nil)
	h.Register(c)
	return c
}

// drain забирает все кадры из очереди клиента без блокировки.
func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case frame, ok := <-c.Send:
			if !ok {
				return out
			}
			var msg Message
			require.NoError(t, json.Unmarshal(frame, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func ofType(msgs []Message, msgType MessageType) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func decodeTyping(t *testing.T, msg Message) TypingUpdate {
	t.Helper()
	var update TypingUpdate
	require.NoError(t, json.Unmarshal(msg.Data, &update))
	return update
}
