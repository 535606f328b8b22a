package analytics

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	KindBook     = "book"
	KindBlogPost = "blog_post"

	visitorCookie = "hsh_visitor_id"
	throttle      = 30 * time.Minute
)

// ViewEvent is one page view of a book or blog post.
type ViewEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Kind      string    `gorm:"type:varchar(16);not null;index:idx_view_target"`
	TargetID  string    `gorm:"type:char(36);not null;index:idx_view_target"`
	CookieID  string    `gorm:"not null;index"`
	IP        string    `gorm:"not null"`
	Language  *string
	Browser   *string
	CreatedAt time.Time `gorm:"index"`
}

// AnalyticsModule records views in its own database. A nil module is valid
// and records nothing.
type AnalyticsModule struct {
	db      *gorm.DB
	pending sync.WaitGroup
	now     func() time.Time
}

func NewAnalyticsModule(db *gorm.DB) *AnalyticsModule {
	if db == nil {
		log.Info().Msg("analytics db is nil, analytics disabled")
		return nil
	}

	if err := db.AutoMigrate(&ViewEvent{}); err != nil {
		log.Error().Err(err).Msg("could not migrate view_events, analytics disabled")
		return nil
	}

	log.Info().Msg("analytics module initialized")
	return &AnalyticsModule{db: db, now: time.Now}
}

// TrackVisit records a view unless the same visitor already viewed the same
// target in the last 30 minutes, so refreshes are not counted.
func (a *AnalyticsModule) TrackVisit(c *gin.Context, kind, targetID string) {
	if a == nil {
		return
	}

	cookieID := getOrCreateCookieID(c)
	now := a.now().UTC()

	var recent int64
	err := a.db.Model(&ViewEvent{}).
		Where("cookie_id = ? AND kind = ? AND target_id = ? AND created_at > ?",
			cookieID, kind, targetID, now.Add(-throttle)).
		Count(&recent).Error
	if err != nil {
		log.Error().Err(err).Msg("could not check recent views")
		return
	}
	if recent > 0 {
		return
	}

	event := ViewEvent{
		Kind:      kind,
		TargetID:  targetID,
		CookieID:  cookieID,
		IP:        c.ClientIP(),
		Language:  extractLanguage(c.GetHeader("Accept-Language")),
		Browser:   extractBrowser(c.Request.UserAgent()),
		CreatedAt: now,
	}

	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		if err := a.db.Create(&event).Error; err != nil {
			log.Error().Err(err).Msg("could not save view event")
		}
	}()
}

// Wait blocks until queued writes are stored.
func (a *AnalyticsModule) Wait() {
	if a == nil {
		return
	}
	a.pending.Wait()
}

// CountViews returns all-time view counts keyed by target id.
func (a *AnalyticsModule) CountViews(kind string, targetIDs []string) map[string]int64 {
	counts := make(map[string]int64, len(targetIDs))
	if a == nil || len(targetIDs) == 0 {
		return counts
	}

	var rows []struct {
		TargetID string
		Count    int64
	}
	err := a.db.Model(&ViewEvent{}).
		Select("target_id, COUNT(*) as count").
		Where("kind = ? AND target_id IN ?", kind, targetIDs).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		log.Error().Err(err).Msg("could not count views")
		return counts
	}

	for _, r := range rows {
		counts[r.TargetID] = r.Count
	}
	return counts
}

type DayVisits struct {
	Date  string
	Count int64
}

// VisitsByDay returns one entry per UTC day for the last days days, oldest
// first, zero-filled.
func (a *AnalyticsModule) VisitsByDay(days int) []DayVisits {
	if a == nil || days <= 0 {
		return []DayVisits{}
	}

	now := a.now().UTC()
	start := now.AddDate(0, 0, -(days - 1))
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	var results []DayVisits
	a.db.Model(&ViewEvent{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", start).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&results)

	byDate := make(map[string]int64, len(results))
	for _, r := range results {
		byDate[r.Date] = r.Count
	}

	out := make([]DayVisits, days)
	for i := range out {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = DayVisits{Date: date, Count: byDate[date]}
	}
	return out
}

func getOrCreateCookieID(c *gin.Context) string {
	if cookie, err := c.Cookie(visitorCookie); err == nil && cookie != "" {
		return cookie
	}

	id := uuid.NewString()
	c.SetCookie(visitorCookie, id, 60*60*24*365*2, "/", "", false, true)
	return id
}

func extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var browser string

	// order matters: Edge and Opera also claim Chrome
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	default:
		browser = "Other"
	}
	return &browser
}

// extractLanguage keeps the first tag of an Accept-Language header.
func extractLanguage(header string) *string {
	if header == "" {
		return nil
	}
	lang := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	if lang == "" {
		return nil
	}
	return &lang
}
