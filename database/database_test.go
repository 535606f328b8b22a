package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"homeschoolhub/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, RunMigrations(db))
	return db
}

func TestRunMigrations_CreatesTables(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"users", "books", "book_reviews", "blog_posts", "posts", "meetups"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Review{}, "idx_review_book_reviewer"))
}

func TestSeed_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Seed(db, nil))
	require.NoError(t, Seed(db, nil))

	var count int64
	db.Model(&models.Book{}).Count(&count)
	assert.Equal(t, int64(len(starterBooks)), count)
}

func TestSeed_StarterBooksHaveValidBands(t *testing.T) {
	for _, b := range starterBooks {
		assert.True(t, models.ValidAgeBand(b.AgeBand), b.Title)
	}
}

func TestBook_RejectsUnknownAgeBand(t *testing.T) {
	db := setupTestDB(t)

	err := db.Create(&models.Book{Title: "Hatchet", Author: "Gary Paulsen", AgeBand: "7-9"}).Error
	assert.ErrorIs(t, err, models.ErrInvalidAgeBand)

	book := &models.Book{Title: "Hatchet", Author: "Gary Paulsen", AgeBand: "6-8"}
	require.NoError(t, db.Create(book).Error)

	book.AgeBand = "teen"
	assert.ErrorIs(t, db.Save(book).Error, models.ErrInvalidAgeBand)

	var stored models.Book
	require.NoError(t, db.First(&stored, "id = ?", book.ID).Error)
	assert.Equal(t, "6-8", stored.AgeBand)
}

func TestSeed_PromotesAdmins(t *testing.T) {
	db := setupTestDB(t)

	admin := &models.User{Email: "Owner@Example.com", PasswordHash: "x"}
	other := &models.User{Email: "reader@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(other).Error)

	require.NoError(t, Seed(db, []string{" owner@example.com ", ""}))

	var promoted, untouched models.User
	require.NoError(t, db.First(&promoted, "id = ?", admin.ID).Error)
	assert.True(t, promoted.IsAdmin)

	require.NoError(t, db.First(&untouched, "id = ?", other.ID).Error)
	assert.False(t, untouched.IsAdmin)
}
