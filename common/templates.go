package common

import (
	"html/template"
	"time"

	"homeschoolhub/reviews"
)

// TemplateFuncs is shared by every module's views. Tests install the same
// map before loading templates.
func TemplateFuncs(domain string) template.FuncMap {
	return template.FuncMap{
		"now": func() time.Time {
			return time.Now()
		},
		"domain": func() string {
			return domain
		},
		"displayTag": reviews.DisplayTag,
		"date": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"datePtr": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"seq": func(from, to int) []int {
			var out []int
			for i := from; i <= to; i++ {
				out = append(out, i)
			}
			return out
		},
	}
}
