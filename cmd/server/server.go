package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/cache"
	"github.com/thereayou/roomchat/internal/config"
	"github.com/thereayou/roomchat/internal/database"
	"github.com/thereayou/roomchat/internal/handlers"
	"github.com/thereayou/roomchat/internal/media"
	"github.com/thereayou/roomchat/internal/websocket"
	"github.com/thereayou/roomchat/pkg/roomcode"
)

type Server struct {
	Config *config.Config
	Router *gin.Engine
	DB     *database.Database
	Redis  *redis.Client
	Media  *media.JetStreamStore
	Hub    *websocket.Hub
}

func NewServer(cfg *config.Config) (*Server, error) {
	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("database connect failed: %w", err)
	}
	if err := dbConn.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	s := &Server{Config: cfg, DB: dbConn}

	var history cache.History = cache.Nop{}
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis connect failed: %w", err)
		}
		s.Redis = rdb
		history = cache.NewRedisHistory(rdb, cfg.HistoryTTL)
	} else {
		log.Warn().Str("module", "server").Msg("REDIS_URL not set, history cache disabled")
	}

	var objects media.ObjectStore
	if cfg.NatsURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := media.OpenJetStreamStore(ctx, cfg.NatsURL, cfg.MediaBucket)
		cancel()
		if err != nil {
			return nil, err
		}
		s.Media = store
		objects = store
	} else {
		log.Warn().Str("module", "server").Msg("NATS_URL not set, uploads disabled")
	}

	codes, err := roomcode.NewGenerator()
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(cfg.RoomCapacity)
	typing := websocket.NewTypingTracker(hub)
	messageH := handlers.NewMessageHandler(dbConn, hub, typing, history)
	s.Hub = hub

	s.Router = newRouter(cfg, routeHandlers{
		rooms:    handlers.NewRoomHandler(dbConn, codes, cfg.MaxMembers),
		users:    handlers.NewUserHandler(dbConn),
		messages: handlers.NewHTTPMessageHandler(dbConn, history),
		uploads:  handlers.NewUploadHandler(media.NewUploader(objects, cfg.PublicURL), cfg.UploadDir, cfg.MaxUploadBytes),
		ws:       handlers.NewWebSocketHandler(hub, messageH),
		health:   handlers.NewHealthHandler(hub),
	})

	return s, nil
}

// Run слушает порт до отмены ctx, затем корректно гасит сервер.
func (s *Server) Run(ctx context.Context) error {
	go s.Hub.Run()

	addr := fmt.Sprintf(":%d", s.Config.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("module", "server").Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Str("module", "server").Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Hub.Stop()
	err := srv.Shutdown(shutdownCtx)
	// флаги online снимаются в отключениях, база нужна до их завершения
	if waitErr := s.Hub.Wait(shutdownCtx); waitErr != nil {
		log.Warn().Err(waitErr).Str("module", "server").Msg("connections still closing")
	}
	s.close()
	return err
}

func (s *Server) close() {
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.Media != nil {
		s.Media.Close()
	}
	if sqlDB, err := s.DB.DB().DB(); err == nil {
		sqlDB.Close()
	}
}
