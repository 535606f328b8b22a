package reviews

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
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

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Book{}, &models.Review{}))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	user := &models.User{Email: email, PasswordHash: "hashedpassword"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestBook(t *testing.T, db *gorm.DB) *models.Book {
	book := &models.Book{Title: "Hatchet", Author: "Gary Paulsen", AgeBand: "6-8"}
	require.NoError(t, db.Create(book).Error)
	return book
}

func TestSubmit_InsertsPendingReview(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	user := createTestUser(t, db, "reader@example.com")
	book := createTestBook(t, db)

	saved, err := store.Submit(context.Background(), book.ID, user.ID, Input{
		RatingOverall: 4,
		AgeRating:     5,
		Strengths:     "  Great survival detail  ",
		Themes:        "courage, self-reliance",
		Categories:    "Mild Violence, Romantic Themes",
	})
	require.NoError(t, err)

	var stored models.Review
	require.NoError(t, db.First(&stored, "id = ?", saved.ID).Error)
	assert.Equal(t, models.ReviewPending, stored.Status)
	assert.Equal(t, 4, stored.RatingOverall)
	require.NotNil(t, stored.Strengths)
	assert.Equal(t, "Great survival detail", *stored.Strengths)
	assert.Nil(t, stored.Concerns)
	assert.Equal(t, []string{"courage", "self-reliance"}, []string(stored.Themes))
	assert.Equal(t, []string{"mild_violence", "romantic_themes"}, []string(stored.ContentCategories))
}

func TestSubmit_UpdatesExistingReviewAndResetsStatus(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	user := createTestUser(t, db, "reader@example.com")
	book := createTestBook(t, db)
	ctx := context.Background()

	first, err := store.Submit(ctx, book.ID, user.ID, Input{RatingOverall: 2, AgeRating: 3})
	require.NoError(t, err)
	require.NoError(t, store.Decide(ctx, first.ID, models.ReviewApproved))

	second, err := store.Submit(ctx, book.ID, user.ID, Input{RatingOverall: 5, AgeRating: 4, Themes: "family"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var rows []models.Review
	require.NoError(t, db.Where("book_id = ?", book.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReviewPending, rows[0].Status)
	assert.Equal(t, 5, rows[0].RatingOverall)
	assert.Equal(t, []string{"family"}, []string(rows[0].Themes))
}

func TestSubmit_UnknownBook(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	user := createTestUser(t, db, "reader@example.com")

	_, err := store.Submit(context.Background(), uuid.New(), user.ID, Input{RatingOverall: 3, AgeRating: 3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmit_RejectsOutOfRangeRatings(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	user := createTestUser(t, db, "reader@example.com")
	book := createTestBook(t, db)

	for _, in := range []Input{
		{RatingOverall: 0, AgeRating: 3},
		{RatingOverall: 3, AgeRating: 6},
	} {
		_, err := store.Submit(context.Background(), book.ID, user.ID, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestQueue_PendingAndRejectedOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	book := createTestBook(t, db)
	now := time.Now()

	statuses := []models.ReviewStatus{models.ReviewRejected, models.ReviewApproved, models.ReviewPending}
	var ids []uuid.UUID
	for i, status := range statuses {
		user := createTestUser(t, db, fmt.Sprintf("reader%d@example.com", i))
		r := &models.Review{
			BookID: book.ID, ReviewerID: user.ID, RatingOverall: 3, AgeAppropriatenessRating: 3,
			Status: status, CreatedAt: now.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.Create(r).Error)
		ids = append(ids, r.ID)
	}

	queue, err := store.Queue(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, ids[0], queue[0].ID)
	assert.Equal(t, ids[2], queue[1].ID)
	require.NotNil(t, queue[0].Book)
	assert.Equal(t, "Hatchet", queue[0].Book.Title)
}

func TestDecide(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	user := createTestUser(t, db, "reader@example.com")
	book := createTestBook(t, db)
	ctx := context.Background()

	saved, err := store.Submit(ctx, book.ID, user.ID, Input{RatingOverall: 3, AgeRating: 3})
	require.NoError(t, err)

	assert.ErrorIs(t, store.Decide(ctx, saved.ID, models.ReviewPending), ErrInvalidDecision)
	assert.ErrorIs(t, store.Decide(ctx, uuid.New(), models.ReviewApproved), ErrNotFound)

	require.NoError(t, store.Decide(ctx, saved.ID, models.ReviewRejected))
	var stored models.Review
	require.NoError(t, db.First(&stored, "id = ?", saved.ID).Error)
	assert.Equal(t, models.ReviewRejected, stored.Status)
}

// A book with one approved 4 and one pending 2 shows 4.0; approving the
// second review brings the average to 3.0.
func TestModerationChangesBookSummary(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	book := createTestBook(t, db)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	ctx := context.Background()

	first, err := store.Submit(ctx, book.ID, alice.ID, Input{RatingOverall: 4, AgeRating: 4})
	require.NoError(t, err)
	require.NoError(t, store.Decide(ctx, first.ID, models.ReviewApproved))
	second, err := store.Submit(ctx, book.ID, bob.ID, Input{RatingOverall: 2, AgeRating: 4})
	require.NoError(t, err)

	loaded, err := store.Book(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "4.0", Summarize(loaded.Reviews).Rating())

	require.NoError(t, store.Decide(ctx, second.ID, models.ReviewApproved))

	queue, err := store.Queue(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)

	loaded, err = store.Book(ctx, book.ID)
	require.NoError(t, err)
	summary := Summarize(loaded.Reviews)
	assert.Equal(t, "3.0", summary.Rating())
	assert.Equal(t, 2, summary.Count())
}

func TestForReviewer_NewestFirstWithBook(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	user := createTestUser(t, db, "reader@example.com")
	first := createTestBook(t, db)
	second := &models.Book{Title: "The Hobbit", Author: "J. R. R. Tolkien", AgeBand: "6-8"}
	require.NoError(t, db.Create(second).Error)

	older := &models.Review{BookID: first.ID, ReviewerID: user.ID, RatingOverall: 3, AgeAppropriatenessRating: 3,
		Status: models.ReviewApproved, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Review{BookID: second.ID, ReviewerID: user.ID, RatingOverall: 5, AgeAppropriatenessRating: 5,
		Status: models.ReviewPending, CreatedAt: time.Now()}
	require.NoError(t, db.Create(older).Error)
	require.NoError(t, db.Create(newer).Error)

	list, err := store.ForReviewer(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	require.NotNil(t, list[0].Book)
	assert.Equal(t, "The Hobbit", list[0].Book.Title)
}

func TestBook_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := NewStore(db).Book(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCanModerate(t *testing.T) {
	assert.False(t, CanModerate(nil))
	assert.False(t, CanModerate(&models.User{}))
	assert.True(t, CanModerate(&models.User{IsAdmin: true}))
}
