package reviews

import (
	"strings"
)

// SplitTags splits comma separated input, trimming entries and dropping empty ones.
func SplitTags(input string) []string {
	var tags []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// NormalizeCategory is the stored form of a content category:
// lowercase with whitespace runs (any Unicode space) joined by underscores.
func NormalizeCategory(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), "_")
}

func ParseThemes(input string) []string {
	return SplitTags(input)
}

func ParseCategories(input string) []string {
	tags := SplitTags(input)
	for i, tag := range tags {
		tags[i] = NormalizeCategory(tag)
	}
	return tags
}

// DisplayTag turns a stored category back into readable text. Presentation only.
func DisplayTag(tag string) string {
	return strings.ReplaceAll(tag, "_", " ")
}

// JoinTags renders tags back into the comma separated form used by the review form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
