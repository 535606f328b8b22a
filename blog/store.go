package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"homeschoolhub/models"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrSlugTaken = errors.New("slug already in use")
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Visible lists the posts readable at now, newest publication first.
func (s *Store) Visible(ctx context.Context, now time.Time) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := s.db.WithContext(ctx).
		Where("published_at IS NOT NULL").
		Order("published_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}

	visible := posts[:0]
	for i := range posts {
		if Visible(&posts[i], now) {
			visible = append(visible, posts[i])
		}
	}
	return visible, nil
}

// VisibleBySlug returns ErrNotFound for unknown slugs and for drafts.
func (s *Store) VisibleBySlug(ctx context.Context, slug string, now time.Time) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if !Visible(&post, now) {
		return nil, ErrNotFound
	}
	return &post, nil
}

// All lists every post, drafts included, newest first.
func (s *Store) All(ctx context.Context) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *Store) ByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

// Save inserts a new post or updates an existing one.
func (s *Store) Save(ctx context.Context, post *models.BlogPost) error {
	db := s.db.WithContext(ctx)

	var taken int64
	err := db.Model(&models.BlogPost{}).
		Where("slug = ? AND id <> ?", post.Slug, post.ID).
		Count(&taken).Error
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if taken > 0 {
		return ErrSlugTaken
	}

	if post.ID == uuid.Nil {
		if err := db.Create(post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return nil
	}

	result := db.Model(post).
		Select("title", "slug", "content", "published_at", "author_id", "updated_at").
		Updates(post)
	if result.Error != nil {
		return fmt.Errorf("update post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
