package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subboard/internal/config"
	"subboard/internal/db"
	"subboard/internal/handlers"
	"subboard/internal/logging"
	"subboard/internal/middleware"
	"subboard/internal/router"
	"subboard/internal/services"
	"subboard/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if !cfg.DotEnvLoaded {
		logger.Info("No .env file found, using environment variables")
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "secret_key_change_me"
		logger.Warn("SESSION_SECRET not set, using development secret")
	}

	gdb, err := db.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Database unavailable", zap.Error(err))
	}
	if err := db.Migrate(gdb, logger); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
	if err := db.Seed(gdb, logger); err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Fatal("Failed to get sql.DB", zap.Error(err))
	}

	clock := clockwork.NewRealClock()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	health := map[string]handlers.Pinger{"postgres": sqlDB.PingContext}

	voteOpts := []votes.Option{
		votes.WithLogger(logger),
		votes.WithMetrics(votes.NewMetrics(registry)),
		votes.WithRetry(cfg.VoteRetryAttempts, cfg.VoteRetryBackoff),
		votes.WithClock(clock),
	}
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = votes.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal("Redis unavailable", zap.Error(err))
		}
		voteOpts = append(voteOpts, votes.WithLocker(votes.NewRedisLocker(rdb, cfg.VoteLockTTL, logger)))
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info("Using redis vote lock")
	}

	users := db.NewUserStore(gdb)
	karma := services.NewKarmaService(users, cfg.KarmaFlushInterval, clock, logger)
	karma.Start()
	voteOpts = append(voteOpts, votes.WithObserver(karma))

	voteStore := db.NewVoteStore(gdb, clock)
	voteSvc := votes.NewService(voteStore, voteOpts...)

	listings, err := services.NewListingService(db.NewPostStore(gdb), services.ListingOptions{
		PageSize: cfg.ListingPageSize,
		CacheTTL: cfg.ListingCacheTTL,
	}, clock, logger)
	if err != nil {
		logger.Fatal("Failed to create listing service", zap.Error(err))
	}
	content := services.NewContentService(gdb, voteStore, voteSvc, listings, cfg.CommentFetchLimit, logger)

	r := router.New(router.Deps{
		Votes:         handlers.NewVoteHandler(voteSvc, db.NewTargetStore(gdb), logger),
		Stories:       handlers.NewStoryHandler(content, listings, logger),
		Health:        handlers.NewHealthHandler(health),
		Users:         users,
		VoteLimiter:   middleware.NewUserRateLimiter(cfg.VoteRatePerSecond, cfg.VoteRateBurst),
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		SessionSecret: cfg.SessionSecret,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	karma.Stop()
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = sqlDB.Close()
	logger.Info("Server stopped")
}
