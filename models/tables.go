package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID                     uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Email                  string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash           string    `gorm:"not null" json:"-"` // json:"-" keeps the hash out of any API output
	FullName               string    `json:"full_name"`
	IsAdmin                bool      `gorm:"default:false" json:"is_admin"`
	EmailVerified          bool      `gorm:"default:false" json:"email_verified"`
	EmailVerificationToken string    `gorm:"index" json:"-"`
	CreatedAt              time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName is the optional full name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

var ErrInvalidAgeBand = errors.New("age band must be one of K-2, 3-5, 6-8, 9-12")

// AgeBands are the grade ranges a book can be classified under.
var AgeBands = []string{"K-2", "3-5", "6-8", "9-12"}

func ValidAgeBand(band string) bool {
	for _, b := range AgeBands {
		if b == band {
			return true
		}
	}
	return false
}

type Book struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string    `gorm:"not null;index" json:"title"`
	Author      string    `gorm:"not null" json:"author"`
	AgeBand     string    `gorm:"type:varchar(8);not null" json:"age_band"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Reviews     []Review  `gorm:"foreignKey:BookID" json:"book_reviews,omitempty"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BeforeSave rejects age bands outside AgeBands, so seed data and imports
// cannot store an unknown band.
func (b *Book) BeforeSave(tx *gorm.DB) error {
	if !ValidAgeBand(b.AgeBand) {
		return fmt.Errorf("%w: %q", ErrInvalidAgeBand, b.AgeBand)
	}
	return nil
}

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Review is a reader's review of a book. A reviewer has at most one row per
// book (unique index); editing it sends it back to moderation.
type Review struct {
	ID                       uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	BookID                   uuid.UUID                   `gorm:"type:char(36);not null;uniqueIndex:idx_review_book_reviewer" json:"book_id"`
	ReviewerID               uuid.UUID                   `gorm:"type:char(36);not null;uniqueIndex:idx_review_book_reviewer;index" json:"reviewer_id"`
	RatingOverall            int                         `gorm:"not null" json:"rating_overall"`
	AgeAppropriatenessRating int                         `gorm:"not null" json:"age_appropriateness_rating"`
	Strengths                *string                     `gorm:"type:text" json:"strengths"`
	Concerns                 *string                     `gorm:"type:text" json:"concerns"`
	Themes                   datatypes.JSONSlice[string] `json:"themes"`
	ContentCategories        datatypes.JSONSlice[string] `json:"content_categories"`
	Status                   ReviewStatus                `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	CreatedAt                time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt                time.Time                   `json:"updated_at"`
	Book                     *Book                       `gorm:"foreignKey:BookID" json:"books,omitempty"`
}

func (Review) TableName() string {
	return "book_reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Review) IsApproved() bool {
	return r.Status == ReviewApproved
}

type BlogPost struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Content     string     `gorm:"type:text" json:"content"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`
	AuthorID    uuid.UUID  `gorm:"type:char(36);index" json:"author_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p *BlogPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *BlogPost) IsPublished() bool {
	return p.PublishedAt != nil
}

// ForumPost is a community discussion topic.
type ForumPost struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	AuthorID  uuid.UUID `gorm:"type:char(36);index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ForumPost) TableName() string {
	return "posts"
}

type Meetup struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Location    string    `json:"location"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"index" json:"date"`
}
