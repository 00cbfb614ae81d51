package db

import (
	"errors"
	"fmt"
	"time"

	"subboard/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by the stores when a row does not exist.
var ErrNotFound = errors.New("record not found")

// SystemUsername owns the subreddits created on first start.
const SystemUsername = "system"

var defaultSubreddits = []string{"General", "Programming", "AskBoard"}

// Open connects to postgres and tunes the connection pool.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if log.Core().Enabled(zap.DebugLevel) {
		level = logger.Info
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("Database connection established")
	return gdb, nil
}

// Migrate creates or updates every table the application uses.
func Migrate(gdb *gorm.DB, log *zap.Logger) error {
	err := gdb.AutoMigrate(
		&models.User{},
		&models.Subreddit{},
		&models.Post{},
		&models.Comment{},
		&models.Vote{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("Database migration completed")
	return nil
}

// Seed creates the system user and the default subreddits once.
func Seed(gdb *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := gdb.Model(&models.Subreddit{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count subreddits: %w", err)
	}
	if count > 0 {
		log.Debug("Subreddits already seeded, skipping")
		return nil
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		owner := models.User{Username: SystemUsername}
		if err := tx.Where(models.User{Username: SystemUsername}).FirstOrCreate(&owner).Error; err != nil {
			return fmt.Errorf("failed to create system user: %w", err)
		}
		for _, name := range defaultSubreddits {
			sub := models.Subreddit{Name: name, OwnerID: owner.ID}
			if err := tx.Create(&sub).Error; err != nil {
				return fmt.Errorf("failed to create subreddit %s: %w", name, err)
			}
		}
		log.Info("Initial subreddits created", zap.Strings("names", defaultSubreddits))
		return nil
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
