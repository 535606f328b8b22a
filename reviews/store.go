package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"homeschoolhub/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid review input")
	ErrInvalidDecision = errors.New("decision must be approved or rejected")
)

// Input is the review form as submitted by a reader. Ratings are required
// integers from 1 to 5; tag fields are comma separated text.
type Input struct {
	RatingOverall int    `form:"rating_overall" json:"rating_overall" binding:"required,min=1,max=5"`
	AgeRating     int    `form:"age_appropriateness_rating" json:"age_appropriateness_rating" binding:"required,min=1,max=5"`
	Strengths     string `form:"strengths" json:"strengths" binding:"max=4000"`
	Concerns      string `form:"concerns" json:"concerns" binding:"max=4000"`
	Themes        string `form:"themes" json:"themes" binding:"max=1000"`
	Categories    string `form:"content_categories" json:"content_categories" binding:"max=1000"`
}

// DefaultInput is the blank review form.
func DefaultInput() Input {
	return Input{RatingOverall: 5, AgeRating: 5}
}

// InputFrom pre-fills the form with an existing review.
func InputFrom(r *models.Review) Input {
	in := Input{
		RatingOverall: r.RatingOverall,
		AgeRating:     r.AgeAppropriatenessRating,
		Themes:        JoinTags(r.Themes),
		Categories:    JoinTags(r.ContentCategories),
	}
	if r.Strengths != nil {
		in.Strengths = *r.Strengths
	}
	if r.Concerns != nil {
		in.Concerns = *r.Concerns
	}
	return in
}

func (in Input) valid() bool {
	return in.RatingOverall >= 1 && in.RatingOverall <= 5 &&
		in.AgeRating >= 1 && in.AgeRating <= 5
}

// apply copies the form onto a review and puts it back into moderation.
func (in Input) apply(r *models.Review) {
	r.RatingOverall = in.RatingOverall
	r.AgeAppropriatenessRating = in.AgeRating
	r.Strengths = nullable(in.Strengths)
	r.Concerns = nullable(in.Concerns)
	r.Themes = tagColumn(ParseThemes(in.Themes))
	r.ContentCategories = tagColumn(ParseCategories(in.Categories))
	r.Status = models.ReviewPending
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Books returns the catalog with every book's reviews attached.
func (s *Store) Books(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	err := s.db.WithContext(ctx).
		Preload("Reviews", orderNewestFirst).
		Order("title ASC").
		Find(&books).Error
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// Book loads a single book with all of its reviews, whatever their status.
func (s *Store) Book(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := s.db.WithContext(ctx).
		Preload("Reviews", orderNewestFirst).
		First(&book, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find book: %w", err)
	}
	return &book, nil
}

// ForReviewer lists a reviewer's reviews with their books, newest first.
func (s *Store) ForReviewer(ctx context.Context, reviewerID uuid.UUID) ([]models.Review, error) {
	var list []models.Review
	err := s.db.WithContext(ctx).
		Preload("Book").
		Where("reviewer_id = ?", reviewerID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list reviewer reviews: %w", err)
	}
	return list, nil
}

// Submit stores a reader's review of a book. A reviewer who already reviewed
// the book gets that row updated (same id) instead of a second one; either
// way the review ends up pending.
func (s *Store) Submit(ctx context.Context, bookID, reviewerID uuid.UUID, in Input) (*models.Review, error) {
	if !in.valid() {
		return nil, ErrInvalidInput
	}

	var saved *models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		var existing []models.Review
		if err := tx.Where("book_id = ? AND reviewer_id = ?", bookID, reviewerID).Find(&existing).Error; err != nil {
			return err
		}

		if current := CurrentReview(existing, reviewerID); current != nil {
			in.apply(current)
			err := tx.Model(current).
				Select("rating_overall", "age_appropriateness_rating", "strengths", "concerns",
					"themes", "content_categories", "status", "updated_at").
				Updates(current).Error
			if err != nil {
				return err
			}
			saved = current
			return nil
		}

		review := &models.Review{BookID: bookID, ReviewerID: reviewerID}
		in.apply(review)
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		saved = review
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("submit review: %w", err)
	}
	return saved, nil
}

func orderNewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func tagColumn(tags []string) datatypes.JSONSlice[string] {
	if len(tags) == 0 {
		return nil
	}
	return datatypes.NewJSONSlice(tags)
}
