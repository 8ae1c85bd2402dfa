package database

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/thereayou/roomchat/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect открывает базу по DSN: postgres:// и postgresql:// идут в postgres,
// sqlite://<path> (или голый путь) в sqlite.
func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	d.db = db
	log.Info().Str("module", "database").Str("dialect", dialector.Name()).Msg("connected")

	return nil
}

func (d *Database) Migrate() error {
	return d.db.AutoMigrate(&models.Room{}, &models.User{}, &models.Message{})
}
