package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"homeschoolhub/models"
)

// queueStatuses are the reviews an admin still has an eye on. Rejected
// reviews stay here so they can be reconsidered.
var queueStatuses = []string{string(models.ReviewPending), string(models.ReviewRejected)}

// CanModerate reports whether the user may see the moderation queue.
func CanModerate(user *models.User) bool {
	return user != nil && user.IsAdmin
}

func ParseDecision(s string) (models.ReviewStatus, error) {
	switch d := models.ReviewStatus(s); d {
	case models.ReviewApproved, models.ReviewRejected:
		return d, nil
	}
	return "", ErrInvalidDecision
}

// Queue lists pending and rejected reviews with their books, oldest first.
func (s *Store) Queue(ctx context.Context) ([]models.Review, error) {
	var queue []models.Review
	err := s.db.WithContext(ctx).
		Preload("Book").
		Where("status IN ?", queueStatuses).
		Order("created_at ASC").
		Find(&queue).Error
	if err != nil {
		return nil, fmt.Errorf("list moderation queue: %w", err)
	}
	return queue, nil
}

// Decide sets a review's status. Concurrent decisions are not coordinated:
// the last write wins.
func (s *Store) Decide(ctx context.Context, id uuid.UUID, decision models.ReviewStatus) error {
	if _, err := ParseDecision(string(decision)); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Update("status", decision)
	if result.Error != nil {
		return fmt.Errorf("update review status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
