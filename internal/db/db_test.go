package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"subboard/internal/models"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error
)

// setupTestDB returns a migrated database with every table emptied.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pgOnce.Do(func() {
		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("subboard"),
			postgres.WithUsername("subboard"),
			postgres.WithPassword("subboard"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			pgErr = err
			return
		}
		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			pgErr = err
			return
		}
		pgDB, err = Open(dsn, zap.NewNop())
		if err != nil {
			pgErr = err
			return
		}
		pgErr = Migrate(pgDB, zap.NewNop())
	})
	if pgErr != nil {
		t.Skipf("postgres container unavailable: %v", pgErr)
	}

	require.NoError(t, pgDB.Exec("TRUNCATE votes, comments, posts, subreddits, users RESTART IDENTITY CASCADE").Error)
	return pgDB
}

type fixture struct {
	db        *gorm.DB
	author    models.User
	voters    []models.User
	subreddit models.Subreddit
}

func newFixture(t *testing.T, voters int) *fixture {
	t.Helper()
	gdb := setupTestDB(t)
	f := &fixture{db: gdb}

	f.author = models.User{Username: "author"}
	require.NoError(t, gdb.Create(&f.author).Error)
	for i := range voters {
		u := models.User{Username: fmt.Sprintf("voter%d", i)}
		require.NoError(t, gdb.Create(&u).Error)
		f.voters = append(f.voters, u)
	}
	f.subreddit = models.Subreddit{Name: "Testing", OwnerID: f.author.ID}
	require.NoError(t, gdb.Create(&f.subreddit).Error)
	return f
}

func (f *fixture) post(t *testing.T, title string, created time.Time) *models.Post {
	t.Helper()
	text := "body of " + title
	p := &models.Post{SubredditSlug: f.subreddit.Slug, Title: title, Text: &text}
	p.UserID = f.author.ID
	p.CreatedOn = created
	p.UpdatedOn = created
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) comment(t *testing.T, post *models.Post, parent *models.Comment) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: post.ID, Text: "reply"}
	c.UserID = f.author.ID
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func TestSeed_CreatesDefaultSubredditsOnce(t *testing.T) {
	gdb := setupTestDB(t)

	require.NoError(t, Seed(gdb, zap.NewNop()))
	require.NoError(t, Seed(gdb, zap.NewNop()))

	var subs []models.Subreddit
	require.NoError(t, gdb.Order("slug").Find(&subs).Error)
	require.Len(t, subs, len(defaultSubreddits))
	require.Equal(t, "askboard", subs[0].Slug)
}

func TestNotFound(t *testing.T) {
	require.ErrorIs(t, notFound(gorm.ErrRecordNotFound), ErrNotFound)
	other := errors.New("boom")
	require.Equal(t, other, notFound(other))
}
