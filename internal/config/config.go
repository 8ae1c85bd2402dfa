package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	DatabaseURL    string        `mapstructure:"database_url"`
	RedisURL       string        `mapstructure:"redis_url"`
	NatsURL        string        `mapstructure:"nats_url"`
	MediaBucket    string        `mapstructure:"media_bucket"`
	PublicURL      string        `mapstructure:"public_url"`
	RoomCapacity   int           `mapstructure:"room_capacity"`
	MaxMembers     int           `mapstructure:"max_members"`
	HistoryTTL     time.Duration `mapstructure:"history_ttl"`
	UploadDir      string        `mapstructure:"upload_dir"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
}

var keys = []string{
	"mode", "port", "database_url", "redis_url", "nats_url", "media_bucket",
	"public_url", "room_capacity", "max_members", "history_ttl", "upload_dir",
	"max_upload_bytes", "cors_origins",
}

// Load читает .env.local / .env (если есть), затем окружение с дефолтами.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Debug().Str("module", "config").Msg(".env not found, using environment variables")
		}
	}

	v := viper.New()
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("database_url", "sqlite://roomchat.db")
	v.SetDefault("redis_url", "")
	v.SetDefault("nats_url", "")
	v.SetDefault("media_bucket", "roomchat-media")
	v.SetDefault("public_url", "http://localhost:3000")
	v.SetDefault("room_capacity", 10)
	v.SetDefault("max_members", 10)
	v.SetDefault("history_ttl", "5m")
	v.SetDefault("upload_dir", filepath.Join(os.TempDir(), "roomchat-uploads"))
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("cors_origins", "*")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv не видит ключи при Unmarshal без явного BindEnv
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.RoomCapacity <= 0 || cfg.MaxMembers <= 0 {
		return nil, fmt.Errorf("room capacity and max members must be positive")
	}

	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("config loaded")
	return &cfg, nil
}
