package reviews

import (
	"math"
	"strconv"

	"github.com/google/uuid"

	"homeschoolhub/models"
)

// Summary is what the public book pages show: only approved reviews count.
type Summary struct {
	Approved      []models.Review
	AverageRating *float64
	Themes        []string
	Categories    []string
}

func (s Summary) Count() int {
	return len(s.Approved)
}

// Rating formats the average with one decimal, or "" when nothing is approved yet.
func (s Summary) Rating() string {
	if s.AverageRating == nil {
		return ""
	}
	return strconv.FormatFloat(*s.AverageRating, 'f', 1, 64)
}

func Approved(all []models.Review) []models.Review {
	var approved []models.Review
	for _, r := range all {
		if r.IsApproved() {
			approved = append(approved, r)
		}
	}
	return approved
}

func Summarize(all []models.Review) Summary {
	approved := Approved(all)
	summary := Summary{Approved: approved}
	if len(approved) == 0 {
		return summary
	}

	sum := 0
	themes := newTagSet()
	categories := newTagSet()
	for _, r := range approved {
		sum += r.RatingOverall
		themes.add(r.Themes...)
		categories.add(r.ContentCategories...)
	}

	avg := math.Round(float64(sum)/float64(len(approved))*10) / 10
	summary.AverageRating = &avg
	summary.Themes = themes.items
	summary.Categories = categories.items
	return summary
}

// CurrentReview picks the reviewer's most recent review out of a book's
// review list, or nil when they have none.
func CurrentReview(all []models.Review, reviewerID uuid.UUID) *models.Review {
	var latest *models.Review
	for i := range all {
		r := &all[i]
		if r.ReviewerID != reviewerID {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest
}

type tagSet struct {
	seen  map[string]struct{}
	items []string
}

func newTagSet() *tagSet {
	return &tagSet{seen: make(map[string]struct{})}
}

func (s *tagSet) add(tags ...string) {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := s.seen[tag]; ok {
			continue
		}
		s.seen[tag] = struct{}{}
		s.items = append(s.items, tag)
	}
}
