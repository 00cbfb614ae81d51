package services

import (
	"context"
	"fmt"
	"time"

	"subboard/internal/db"
	"subboard/internal/models"
	"subboard/internal/ranking"
	"subboard/internal/utils"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Listing is one page of ranked posts.
type Listing struct {
	Subreddit string         `json:"subreddit,omitempty"`
	Mode      ranking.Mode   `json:"sort"`
	Page      int            `json:"page"`
	Posts     []*models.Post `json:"posts"`
	HasMore   bool           `json:"has_more"`
}

type ListingOptions struct {
	PageSize int
	CacheTTL time.Duration
}

// ListingService loads one page of a ranked listing from the database and
// caches it for a short time.
type ListingService struct {
	posts  *db.PostStore
	cache  *utils.TTLCache[*Listing]
	opts   ListingOptions
	clock  clockwork.Clock
	logger *zap.Logger
}

func NewListingService(posts *db.PostStore, opts ListingOptions, clock clockwork.Clock, logger *zap.Logger) (*ListingService, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}
	cache, err := utils.NewTTLCache[*Listing](256, clock)
	if err != nil {
		return nil, err
	}
	return &ListingService{posts: posts, cache: cache, opts: opts, clock: clock, logger: logger}, nil
}

func (s *ListingService) List(ctx context.Context, subreddit string, mode ranking.Mode, page int) (*Listing, error) {
	page = min(max(page, 1), utils.MaxPage)
	key := fmt.Sprintf("%s|%s|%d", subreddit, mode, page)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	now := s.clock.Now()
	size := s.opts.PageSize
	rows, err := s.posts.Page(ctx, subreddit, mode, now, (page-1)*size, size+1)
	if err != nil {
		return nil, err
	}

	listing := &Listing{Subreddit: subreddit, Mode: mode, Page: page, Posts: []*models.Post{}}
	if len(rows) > size {
		listing.HasMore = true
		rows = rows[:size]
	}
	for p := range ranking.Rank(rows, mode, now) {
		listing.Posts = append(listing.Posts, p)
	}

	ids := make([]uint, len(listing.Posts))
	for i, p := range listing.Posts {
		ids[i] = p.ID
	}
	counts, err := s.posts.CommentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range listing.Posts {
		p.CommentCount = counts[p.ID]
	}

	s.cache.Set(key, listing, s.opts.CacheTTL)
	s.logger.Debug("listing ranked",
		zap.String("subreddit", subreddit), zap.String("sort", string(mode)),
		zap.Int("page", page), zap.Int("posts", len(listing.Posts)))
	return listing, nil
}

// Invalidate drops every cached page.
func (s *ListingService) Invalidate() {
	s.cache.Purge()
}
