package site

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Grade struct {
	ID    string
	Label string
}

type Subject struct {
	Title string
	Grade string
}

var grades = []Grade{
	{ID: "k-5", Label: "Elementary (K-5)"},
	{ID: "6-8", Label: "Middle School (6-8)"},
	{ID: "9-12", Label: "High School (9-12)"},
}

var subjects = []Subject{
	{Title: "Mathematics", Grade: "k-5"},
	{Title: "Science", Grade: "k-5"},
	{Title: "Language Arts", Grade: "k-5"},
	{Title: "Algebra I", Grade: "6-8"},
	{Title: "Biology", Grade: "6-8"},
	{Title: "World History", Grade: "6-8"},
	{Title: "Calculus", Grade: "9-12"},
	{Title: "Physics", Grade: "9-12"},
	{Title: "Literature", Grade: "9-12"},
}

// SubjectsFor returns the subjects of a grade group. Unknown or empty
// grades return everything.
func SubjectsFor(grade string) []Subject {
	var out []Subject
	for _, s := range subjects {
		if s.Grade == grade {
			out = append(out, s)
		}
	}
	if out == nil {
		return subjects
	}
	return out
}

func gradeLabel(id string) string {
	for _, g := range grades {
		if g.ID == id {
			return g.Label
		}
	}
	return ""
}

func (s *SiteModule) resources(c *gin.Context) {
	selected := c.Query("grade")
	if gradeLabel(selected) == "" {
		selected = "all"
	}

	c.HTML(http.StatusOK, "site_resources.html", gin.H{
		"grades":   grades,
		"selected": selected,
		"subjects": SubjectsFor(selected),
	})
}
