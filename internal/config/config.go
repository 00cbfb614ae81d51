package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv        string `env:"APP_ENV" default:"development"`
	Port          string `env:"PORT" default:"8080"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisURL      string `env:"REDIS_URL"`
	SessionSecret string `env:"SESSION_SECRET"`
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"json"`

	CommentFetchLimit int           `env:"COMMENT_FETCH_LIMIT" default:"500"`
	ListingPageSize   int           `env:"LISTING_PAGE_SIZE" default:"25"`
	ListingCacheTTL   time.Duration `env:"LISTING_CACHE_TTL" default:"1m"`

	VoteRetryAttempts int           `env:"VOTE_RETRY_ATTEMPTS" default:"3"`
	VoteRetryBackoff  time.Duration `env:"VOTE_RETRY_BACKOFF" default:"10ms"`
	VoteLockTTL       time.Duration `env:"VOTE_LOCK_TTL" default:"5s"`
	VoteRatePerSecond float64       `env:"VOTE_RATE_PER_SECOND" default:"5"`
	VoteRateBurst     int           `env:"VOTE_RATE_BURST" default:"10"`

	KarmaFlushInterval time.Duration `env:"KARMA_FLUSH_INTERVAL" default:"500ms"`

	// DotEnvLoaded reports whether a .env file was read. The logger does not
	// exist yet while loading, so the caller logs it.
	DotEnvLoaded bool
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	dotEnv := godotenv.Load() == nil

	cfg := Config{DotEnvLoaded: dotEnv}
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func Validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" && !cfg.IsDevelopment() {
		return errors.New("SESSION_SECRET is required outside development")
	}

	positive := map[string]int{
		"COMMENT_FETCH_LIMIT": cfg.CommentFetchLimit,
		"LISTING_PAGE_SIZE":   cfg.ListingPageSize,
		"VOTE_RETRY_ATTEMPTS": cfg.VoteRetryAttempts,
		"VOTE_RATE_BURST":     cfg.VoteRateBurst,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}

	if cfg.VoteRatePerSecond <= 0 {
		return fmt.Errorf("VOTE_RATE_PER_SECOND must be positive, got %v", cfg.VoteRatePerSecond)
	}
	if cfg.ListingCacheTTL < 0 || cfg.VoteRetryBackoff < 0 {
		return errors.New("durations must not be negative")
	}
	if cfg.VoteLockTTL <= 0 || cfg.KarmaFlushInterval <= 0 {
		return errors.New("VOTE_LOCK_TTL and KARMA_FLUSH_INTERVAL must be positive")
	}
	return nil
}
