package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/handlers/dto"
)

const (
	keyPrefix = "roomchat:history:"
	genPrefix = "roomchat:history:gen:"
	opTimeout = 2 * time.Second
)

// History кеш истории комнаты. Запись принимается только для того поколения,
// которое было прочитано до загрузки из базы: Invalidate поднимает поколение,
// и устаревший снимок уже не попадёт в кеш.
type History interface {
	Get(ctx context.Context, roomCode string) ([]dto.MessageResponse, bool)
	Generation(ctx context.Context, roomCode string) (int64, bool)
	Set(ctx context.Context, roomCode string, gen int64, messages []dto.MessageResponse)
	Invalidate(roomCode string)
}

type RedisHistory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisHistory(client *redis.Client, ttl time.Duration) *RedisHistory {
	return &RedisHistory{client: client, ttl: ttl}
}

func key(roomCode string) string {
	return keyPrefix + roomCode
}

func genKey(roomCode string) string {
	return genPrefix + roomCode
}

// Get промах и ошибка Redis одинаково означают "идти в базу".
func (h *RedisHistory) Get(ctx context.Context, roomCode string) ([]dto.MessageResponse, bool) {
	data, err := h.client.Get(ctx, key(roomCode)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("module", "cache.history").Str("room", roomCode).Msg("get")
		}
		return nil, false
	}

	var messages []dto.MessageResponse
	if err := json.Unmarshal(data, &messages); err != nil {
		log.Warn().Err(err).Str("module", "cache.history").Str("room", roomCode).Msg("corrupt entry")
		return nil, false
	}
	return messages, true
}

// Generation текущее поколение комнаты. false: Redis недоступен, кешировать нельзя.
func (h *RedisHistory) Generation(ctx context.Context, roomCode string) (int64, bool) {
	gen, err := readGen(ctx, h.client, roomCode)
	if err != nil {
		log.Warn().Err(err).Str("module", "cache.history").Str("room", roomCode).Msg("generation")
		return 0, false
	}
	return gen, true
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGen(ctx context.Context, c getter, roomCode string) (int64, error) {
	gen, err := c.Get(ctx, genKey(roomCode)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// Set пишет снимок под WATCH на ключ поколения. Если поколение сдвинулось,
// снимок отбрасывается.
func (h *RedisHistory) Set(ctx context.Context, roomCode string, gen int64, messages []dto.MessageResponse) {
	data, err := json.Marshal(messages)
	if err != nil {
		return
	}

	err = h.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGen(ctx, tx, roomCode)
		if err != nil {
			return err
		}
		if current != gen {
			return redis.TxFailedErr
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(roomCode), data, h.ttl)
			return nil
		})
		return err
	}, genKey(roomCode))

	switch {
	case errors.Is(err, redis.TxFailedErr):
		log.Debug().Str("module", "cache.history").Str("room", roomCode).Msg("stale snapshot dropped")
	case err != nil:
		log.Warn().Err(err).Str("module", "cache.history").Str("room", roomCode).Msg("set")
	}
}

// Invalidate сначала поднимает поколение, затем удаляет снимок.
func (h *RedisHistory) Invalidate(roomCode string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(roomCode))
		pipe.Del(ctx, key(roomCode))
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "cache.history").Str("room", roomCode).Msg("invalidate")
	}
}

// Nop используется, когда REDIS_URL не задан.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]dto.MessageResponse, bool) { return nil, false }
func (Nop) Generation(context.Context, string) (int64, bool)          { return 0, false }
func (Nop) Set(context.Context, string, int64, []dto.MessageResponse) {}
func (Nop) Invalidate(string)                                         {}
