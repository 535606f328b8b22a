package common

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectDb(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database path not set")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("opened sqlite db")
	return db, nil
}

// ConnectAnalyticsDb opens the separate analytics database. An empty path
// disables analytics and returns nil.
func ConnectAnalyticsDb(path string) *gorm.DB {
	if path == "" {
		log.Info().Msg("ANALYTICS_DB not set, analytics disabled")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("could not open analytics db, analytics disabled")
		return nil
	}

	log.Info().Str("path", path).Msg("opened analytics sqlite db")
	return db
}
