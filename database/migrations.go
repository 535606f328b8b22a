package database

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"homeschoolhub/models"
)

func RunMigrations(db *gorm.DB) error {
	log.Info().Msg("running database migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Review{},
		&models.BlogPost{},
		&models.ForumPost{},
		&models.Meetup{},
	)

	if err != nil {
		log.Error().Err(err).Msg("migrations failed")
		return err
	}

	log.Info().Msg("migrations completed")
	return nil
}
