package blog

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"homeschoolhub/models"
)

const excerptLength = 240

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces = regexp.MustCompile(` +`)
)

// Visible reports whether the public may read the post at now. Posts dated
// in the future stay hidden until then.
func Visible(post *models.BlogPost, now time.Time) bool {
	return post.PublishedAt != nil && !post.PublishedAt.After(now)
}

// Excerpt is the first paragraph of content, or its first 240 characters
// when content does not have a paragraph break after some text.
func Excerpt(content string) string {
	if i := strings.Index(content, "\n\n"); i > 0 {
		return content[:i]
	}
	runes := []rune(content)
	if len(runes) > excerptLength {
		return string(runes[:excerptLength])
	}
	return content
}

// GenerateSlug derives a URL slug from a title. Every Unicode space counts
// as a word break.
func GenerateSlug(title string) string {
	slug := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, strings.TrimSpace(strings.ToLower(title)))
	slug = slugStrip.ReplaceAllString(slug, "")
	return slugSpaces.ReplaceAllString(slug, "-")
}

// SetPublished applies the editor's published toggle. Switching it on stamps
// now; a post that is already published keeps its date.
func SetPublished(post *models.BlogPost, published bool, now time.Time) {
	switch {
	case !published:
		post.PublishedAt = nil
	case post.PublishedAt == nil:
		t := now
		post.PublishedAt = &t
	}
}
