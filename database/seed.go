package database

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"homeschoolhub/models"
)

var starterBooks = []models.Book{
	{Title: "Charlotte's Web", Author: "E. B. White", AgeBand: "3-5",
		Description: "A pig, a spider and a barnyard friendship."},
	{Title: "Frog and Toad Are Friends", Author: "Arnold Lobel", AgeBand: "K-2",
		Description: "Five short stories about two good friends."},
	{Title: "Hatchet", Author: "Gary Paulsen", AgeBand: "6-8",
		Description: "A boy survives alone in the Canadian wilderness."},
	{Title: "The Hobbit", Author: "J. R. R. Tolkien", AgeBand: "6-8",
		Description: "Bilbo Baggins is swept into a quest for a dragon's treasure."},
	{Title: "To Kill a Mockingbird", Author: "Harper Lee", AgeBand: "9-12",
		Description: "Justice and childhood in a small Alabama town."},
}

// Seed fills an empty book catalog and grants the admin flag to the users
// whose email is listed in adminEmails. Safe to run on every start.
func Seed(db *gorm.DB, adminEmails []string) error {
	var count int64
	if err := db.Model(&models.Book{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed count books: %w", err)
	}

	if count == 0 {
		books := make([]models.Book, len(starterBooks))
		copy(books, starterBooks)
		if err := db.Create(&books).Error; err != nil {
			return fmt.Errorf("seed insert books: %w", err)
		}
		log.Info().Int("books", len(books)).Msg("seeded book catalog")
	}

	if err := PromoteAdmins(db, adminEmails); err != nil {
		return err
	}
	return nil
}

// PromoteAdmins sets is_admin on every existing user whose email is listed.
func PromoteAdmins(db *gorm.DB, emails []string) error {
	var clean []string
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			clean = append(clean, e)
		}
	}
	if len(clean) == 0 {
		return nil
	}

	result := db.Model(&models.User{}).
		Where("lower(email) IN ? AND is_admin = ?", clean, false).
		Update("is_admin", true)
	if result.Error != nil {
		return fmt.Errorf("promote admins: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Info().Int64("users", result.RowsAffected).Msg("granted admin flag")
	}
	return nil
}
