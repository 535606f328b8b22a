package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"homeschoolhub/account"
	"homeschoolhub/admin"
	"homeschoolhub/analytics"
	"homeschoolhub/auth"
	"homeschoolhub/backoffice"
	"homeschoolhub/blog"
	"homeschoolhub/books"
	"homeschoolhub/cache"
	"homeschoolhub/common"
	"homeschoolhub/database"
	"homeschoolhub/email"
	"homeschoolhub/ratelimit"
	"homeschoolhub/reviews"
	"homeschoolhub/site"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	common.NewLogger(cfg.Env, os.Stdout)

	if err := common.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := common.ConnectDb(cfg.SqliteDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	if err := database.Seed(db, cfg.AdminEmails); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}

	analyticsModule := analytics.NewAnalyticsModule(common.ConnectAnalyticsDb(cfg.AnalyticsDB))

	mailer := email.NewEmailService(email.Settings{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		Domain:   cfg.Domain,
	})
	if !mailer.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, new accounts are confirmed without email")
	}

	provider := auth.NewProvider(db, mailer, cfg.AdminEmails)
	unsubscribe := provider.Subscribe(func(ev auth.Event) {
		log.Info().Str("event", string(ev.Kind)).Str("user_id", ev.User.ID.String()).Msg("auth event")
	})

	pageCache := cache.New(cfg.CacheDir, cfg.CacheMaxAge)
	limiter := ratelimit.New(0.2, 5)

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), common.RequestLogger())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   !cfg.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions("homeschoolhub-session", store))
	router.Use(provider.Middleware())

	router.SetFuncMap(common.TemplateFuncs(cfg.Domain))
	router.LoadHTMLGlob("*/views/*.html")

	reviewStore := reviews.NewStore(db)
	postStore := blog.NewStore(db)

	provider.RegisterRoutes(router, limiter.Middleware())
	books.NewBooksModule(reviewStore, analyticsModule).RegisterRoutes(router, limiter.Middleware())
	blog.NewBlogModule(postStore, analyticsModule, pageCache).RegisterRoutes(router)
	account.NewAccountModule(reviewStore).RegisterRoutes(router)
	admin.NewAdminModule(reviewStore, postStore, analyticsModule, pageCache).RegisterRoutes(router)
	backoffice.NewBackofficeModule(db, analyticsModule, pageCache, cfg.BackofficeEmails).RegisterRoutes(router)
	site.NewSiteModule(db, postStore, reviewStore, site.Options{
		Mailer:    mailer,
		ContactTo: cfg.ContactTo,
		Domain:    cfg.Domain,
	}).RegisterRoutes(router, limiter.Middleware())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go housekeeping(ctx, limiter, pageCache)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	unsubscribe()
	provider.Close()
	analyticsModule.Wait()
	log.Info().Msg("server stopped")
}

// housekeeping drops idle rate limiter entries and expired cached pages
// until ctx is cancelled.
func housekeeping(ctx context.Context, limiter *ratelimit.KeyedRateLimiter, pageCache *cache.PageCache) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept := limiter.Sweep()
			removed, err := pageCache.ClearOld()
			if err != nil {
				log.Warn().Err(err).Msg("could not clear old cached pages")
			}
			log.Debug().Int("limiters", swept).Int("pages", removed).Msg("housekeeping")
		}
	}
}
