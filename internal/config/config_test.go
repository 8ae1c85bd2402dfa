package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 10, cfg.RoomCapacity)
	assert.Equal(t, 10, cfg.MaxMembers)
	assert.Equal(t, 5*time.Minute, cfg.HistoryTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "8081")
	t.Setenv("DATABASE_URL", "postgres://chat@localhost/chat")
	t.Setenv("HISTORY_TTL", "30s")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "postgres://chat@localhost/chat", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.HistoryTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_RejectsZeroCapacity(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ROOM_CAPACITY", "0")

	_, err := Load()
	assert.Error(t, err)
}

// chdir — аналог t.Chdir (Go 1.24) для старых тулчейнов.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
