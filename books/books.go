package books

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"homeschoolhub/analytics"
	"homeschoolhub/auth"
	"homeschoolhub/common"
	"homeschoolhub/models"
	"homeschoolhub/reviews"
)

const submittedMessage = "Thank you. Your review has been submitted and will be visible once it has been approved by the admins."

type BooksModule struct {
	reviews   *reviews.Store
	analytics *analytics.AnalyticsModule
}

// CatalogEntry is a book with the summary of its approved reviews.
type CatalogEntry struct {
	Book    models.Book
	Summary reviews.Summary
}

func NewBooksModule(store *reviews.Store, analyticsModule *analytics.AnalyticsModule) *BooksModule {
	return &BooksModule{reviews: store, analytics: analyticsModule}
}

// RegisterRoutes mounts the catalog. guards run before review submission.
func (b *BooksModule) RegisterRoutes(router *gin.Engine, guards ...gin.HandlerFunc) {
	router.GET("/books", b.index)
	router.GET("/books/:id", b.detail)
	router.POST("/books/:id/reviews", common.Chain(guards, b.submitReview)...)
}

func (b *BooksModule) index(c *gin.Context) {
	list, err := b.reviews.Books(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("could not load books")
		c.HTML(http.StatusInternalServerError, "books_index.html", gin.H{
			"error": "Unable to load books.",
		})
		return
	}

	entries := make([]CatalogEntry, 0, len(list))
	for _, book := range list {
		entries = append(entries, CatalogEntry{Book: book, Summary: reviews.Summarize(book.Reviews)})
	}

	c.HTML(http.StatusOK, "books_index.html", gin.H{
		"books": entries,
		"user":  auth.CurrentUser(c),
	})
}

func (b *BooksModule) detail(c *gin.Context) {
	book, ok := b.loadBook(c)
	if !ok {
		return
	}
	b.analytics.TrackVisit(c, analytics.KindBook, book.ID.String())

	user := auth.CurrentUser(c)
	form := reviews.DefaultInput()
	if user != nil {
		if current := reviews.CurrentReview(book.Reviews, user.ID); current != nil {
			form = reviews.InputFrom(current)
		}
	}

	b.renderDetail(c, http.StatusOK, book, form, gin.H{"success": auth.Flash(c)})
}

func (b *BooksModule) submitReview(c *gin.Context) {
	user := auth.CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, auth.LoginURL("/books/"+c.Param("id")))
		return
	}

	book, ok := b.loadBook(c)
	if !ok {
		return
	}

	var form reviews.Input
	if err := c.ShouldBind(&form); err != nil {
		b.renderDetail(c, http.StatusBadRequest, book, form, gin.H{
			"error":       "Unable to submit review.",
			"fieldErrors": common.ValidationMessages(err),
		})
		return
	}

	if _, err := b.reviews.Submit(c.Request.Context(), book.ID, user.ID, form); err != nil {
		log.Error().Err(err).Str("book_id", book.ID.String()).Msg("could not submit review")
		b.renderDetail(c, http.StatusInternalServerError, book, form, gin.H{
			"error": "Unable to submit review.",
		})
		return
	}

	auth.SetFlash(c, submittedMessage)
	c.Redirect(http.StatusSeeOther, "/books/"+book.ID.String())
}

// loadBook renders the error page itself when the book cannot be loaded.
func (b *BooksModule) loadBook(c *gin.Context) (*models.Book, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusNotFound, "books_error.html", gin.H{"error": "Book not found."})
		return nil, false
	}

	book, err := b.reviews.Book(c.Request.Context(), id)
	if errors.Is(err, reviews.ErrNotFound) {
		c.HTML(http.StatusNotFound, "books_error.html", gin.H{"error": "Book not found."})
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Str("book_id", id.String()).Msg("could not load book")
		c.HTML(http.StatusInternalServerError, "books_error.html", gin.H{"error": "Unable to load book details."})
		return nil, false
	}
	return book, true
}

func (b *BooksModule) renderDetail(c *gin.Context, status int, book *models.Book, form reviews.Input, extra gin.H) {
	user := auth.CurrentUser(c)

	var own *models.Review
	if user != nil {
		own = reviews.CurrentReview(book.Reviews, user.ID)
	}

	data := gin.H{
		"book":      book,
		"summary":   reviews.Summarize(book.Reviews),
		"user":      user,
		"ownReview": own,
		"form":      form,
	}
	for k, v := range extra {
		data[k] = v
	}
	c.HTML(status, "books_detail.html", data)
}
