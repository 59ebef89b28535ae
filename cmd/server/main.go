package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/config"
	"github.com/akshadjaiswal/hot-takes-arena/internal/db"
	"github.com/akshadjaiswal/hot-takes-arena/internal/events"
	"github.com/akshadjaiswal/hot-takes-arena/internal/handler"
	"github.com/akshadjaiswal/hot-takes-arena/internal/identity"
	"github.com/akshadjaiswal/hot-takes-arena/internal/metrics"
	"github.com/akshadjaiswal/hot-takes-arena/internal/middleware"
	"github.com/akshadjaiswal/hot-takes-arena/internal/moderation"
	"github.com/akshadjaiswal/hot-takes-arena/internal/ratelimit"
	"github.com/akshadjaiswal/hot-takes-arena/internal/repository"
	"github.com/akshadjaiswal/hot-takes-arena/internal/router"
	"github.com/akshadjaiswal/hot-takes-arena/internal/service"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "hot-takes-api")
	for _, w := range cfg.Warnings() {
		log.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
	metrics.Register(pool)

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	store := newRateLimitStore(cfg, cache)
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	limiter := ratelimit.NewLimiter(store, cfg.RateLimitEnabled)
	admission := service.NewAdmission(limiter)

	publisher := newPublisher(cfg)
	defer publisher.Close()

	proxies, err := identity.NewProxyPolicy(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}

	// Repositories
	takeRepo := repository.NewTakeRepo(pool)
	voteRepo := repository.NewVoteRepo(pool)
	reportRepo := repository.NewReportRepo(pool)
	categoryRepo := repository.NewCategoryRepo(pool)

	// Services
	content := moderation.NewValidator(moderation.NewDenylistPolicy(moderation.DefaultDenylist, moderation.DefaultWholeWords...))
	categorySvc := service.NewCategoryService(categoryRepo, cache)
	takeSvc := service.NewTakeService(takeRepo, categorySvc, content, admission, cache, publisher)
	voteSvc := service.NewVoteService(voteRepo, admission, cache)
	reportSvc := service.NewReportService(reportRepo, takeRepo, admission, cache, publisher)
	statsSvc := service.NewStatsService(takeRepo, cache)
	adminSvc, err := service.NewAdminService(service.AdminConfig{
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
		JWTSecret:    cfg.AdminJWTSecret,
		SessionTTL:   cfg.AdminSessionTTL,
	}, reportRepo, takeRepo, admission, cache, publisher)
	if err != nil {
		log.Fatal().Err(err).Msg("admin setup failed")
	}

	worker := service.NewTrendingWorker(takeRepo, cfg.TrendingSchedule, cfg.TrendingHorizon)
	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("trending worker failed to start")
	}
	defer worker.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Hot Takes Arena API",
		ServerHeader: "hot-takes-arena",
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    64 * 1024,
	})

	var apiLimiter *middleware.RateLimiter
	if cfg.RateLimitEnabled && cfg.APIRequestsPerMinute > 0 {
		apiLimiter = middleware.NewAPIRateLimiter(store, cfg.APIRequestsPerMinute)
	}

	router.Setup(app, &router.Handlers{
		Take:     handler.NewTakeHandler(takeSvc),
		Vote:     handler.NewVoteHandler(voteSvc),
		Report:   handler.NewReportHandler(reportSvc),
		Category: handler.NewCategoryHandler(categorySvc),
		Stats:    handler.NewStatsHandler(statsSvc),
		Admin:    handler.NewAdminHandler(adminSvc, cfg.IsProduction()),
		Health:   handler.NewHealthHandler(pool, cache.Client()),
	}, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		Proxies:     proxies,
		Hasher:      identity.NewHasher(cfg.IPHashSalt),
		APILimiter:  apiLimiter,
	})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("Hot Takes Arena API starting")
	if err := app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

// newRateLimitStore picks the counter backend. "auto" shares counters through
// Redis when the cache is connected and falls back to process memory.
func newRateLimitStore(cfg *config.Config, cache *service.CacheService) ratelimit.Store {
	rdb := cache.Client()
	switch cfg.RateLimitBackend {
	case "redis":
		if rdb == nil {
			log.Fatal().Msg("RATE_LIMIT_BACKEND=redis but Redis is unavailable")
		}
		return ratelimit.NewRedisStore(rdb)
	case "memory":
		return ratelimit.NewMemoryStore()
	case "auto":
		if rdb != nil {
			log.Info().Msg("rate limit: using redis store")
			return ratelimit.NewRedisStore(rdb)
		}
		log.Info().Msg("rate limit: using in-process store")
		return ratelimit.NewMemoryStore()
	default:
		log.Fatal().Str("backend", cfg.RateLimitBackend).Msg("unknown RATE_LIMIT_BACKEND")
		return nil
	}
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.RabbitMQURL == "" {
		log.Info().Msg("events: RABBITMQ_URL not set, events disabled")
		return events.NopPublisher{}
	}
	pub, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		log.Warn().Err(err).Msg("events: broker unavailable, events disabled")
		return events.NopPublisher{}
	}
	return pub
}
