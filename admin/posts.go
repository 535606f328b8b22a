package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"homeschoolhub/analytics"
	"homeschoolhub/blog"
	"homeschoolhub/common"
	"homeschoolhub/models"
)

type postForm struct {
	Title        string `form:"title" binding:"required,max=200"`
	Slug         string `form:"slug" binding:"omitempty,slug,max=200"`
	Content      string `form:"content"`
	Published    bool   `form:"published"`
	GenerateSlug string `form:"generate_slug"`
}

type postRow struct {
	Post  models.BlogPost
	Views int64
}

func (a *AdminModule) listPosts(c *gin.Context) {
	posts, err := a.posts.All(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("could not load blog posts")
		c.HTML(http.StatusInternalServerError, "admin_blog_list.html", gin.H{
			"error": "Unable to load blog posts.",
		})
		return
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID.String()
	}
	views := a.analytics.CountViews(analytics.KindBlogPost, ids)

	rows := make([]postRow, len(posts))
	for i, p := range posts {
		rows[i] = postRow{Post: p, Views: views[p.ID.String()]}
	}

	c.HTML(http.StatusOK, "admin_blog_list.html", gin.H{
		"posts": rows,
		"now":   a.now(),
	})
}

func (a *AdminModule) newPost(c *gin.Context) {
	c.HTML(http.StatusOK, "admin_blog_edit.html", gin.H{
		"isNew": true,
		"form":  postForm{},
	})
}

func (a *AdminModule) editPost(c *gin.Context) {
	post, ok := a.loadPost(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "admin_blog_edit.html", gin.H{
		"post": post,
		"form": postForm{
			Title:     post.Title,
			Slug:      post.Slug,
			Content:   post.Content,
			Published: post.IsPublished(),
		},
		"preview": blog.RenderMarkdown(post.Content),
	})
}

// savePost handles both /admin/blog/new and /admin/blog/:id.
func (a *AdminModule) savePost(c *gin.Context) {
	isNew := c.Param("id") == ""

	post := &models.BlogPost{}
	if !isNew {
		var ok bool
		if post, ok = a.loadPost(c); !ok {
			return
		}
	}

	var form postForm
	bindErr := c.ShouldBind(&form)

	render := func(status int, extra gin.H) {
		data := gin.H{"isNew": isNew, "post": post, "form": form}
		for k, v := range extra {
			data[k] = v
		}
		c.HTML(status, "admin_blog_edit.html", data)
	}

	if form.GenerateSlug != "" {
		form.Slug = blog.GenerateSlug(form.Title)
		render(http.StatusOK, nil)
		return
	}

	if bindErr != nil {
		render(http.StatusBadRequest, gin.H{
			"error":       "Unable to save post.",
			"fieldErrors": common.ValidationMessages(bindErr),
		})
		return
	}

	if form.Slug == "" {
		form.Slug = blog.GenerateSlug(form.Title)
	}
	if form.Slug == "" {
		render(http.StatusBadRequest, gin.H{
			"error":       "Unable to save post.",
			"fieldErrors": map[string]string{"Slug": "is required"},
		})
		return
	}

	oldSlug := post.Slug
	post.Title = form.Title
	post.Slug = form.Slug
	post.Content = form.Content
	if isNew {
		post.AuthorID = currentAdmin(c).ID
	}
	blog.SetPublished(post, form.Published, a.now())

	if err := a.posts.Save(c.Request.Context(), post); err != nil {
		if errors.Is(err, blog.ErrSlugTaken) {
			render(http.StatusConflict, gin.H{
				"error":       "Unable to save post.",
				"fieldErrors": map[string]string{"Slug": "is already used by another post"},
			})
			return
		}
		log.Error().Err(err).Msg("could not save blog post")
		render(http.StatusInternalServerError, gin.H{"error": "Unable to save post."})
		return
	}

	if a.cache != nil {
		if err := a.cache.Clear(oldSlug, post.Slug); err != nil {
			log.Warn().Err(err).Str("slug", post.Slug).Msg("could not clear page cache")
		}
	}

	c.Redirect(http.StatusSeeOther, "/admin/blog")
}

func (a *AdminModule) loadPost(c *gin.Context) (*models.BlogPost, bool) {
	id, ok := parseID(c)
	if !ok {
		c.HTML(http.StatusNotFound, "admin_error.html", gin.H{"error": "Post not found."})
		return nil, false
	}

	post, err := a.posts.ByID(c.Request.Context(), id)
	if errors.Is(err, blog.ErrNotFound) {
		c.HTML(http.StatusNotFound, "admin_error.html", gin.H{"error": "Post not found."})
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Msg("could not load blog post")
		c.HTML(http.StatusInternalServerError, "admin_error.html", gin.H{"error": "Unable to load post."})
		return nil, false
	}
	return post, true
}
