package db

import (
	"context"
	"fmt"
	"time"

	"subboard/internal/models"
	"subboard/internal/ranking"

	"gorm.io/gorm"
)

type PostStore struct {
	db *gorm.DB
}

func NewPostStore(gdb *gorm.DB) *PostStore {
	return &PostStore{db: gdb}
}

func (s *PostStore) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// hotRatingSQL computes ranking.HotRating in postgres. The factor is the
// number of started rating buckets since creation, never below one.
var hotRatingSQL = func() string {
	factor := fmt.Sprintf(
		"(GREATEST(FLOOR(EXTRACT(EPOCH FROM (?::timestamptz - created_on)) / %d), 0)::bigint + 1)",
		int64(ranking.HotBucket/time.Second))
	return "CASE WHEN score < 0 THEN score * " + factor + " ELSE score / " + factor + " END"
}()

// Page loads up to limit posts of a listing in mode, skipping the first
// offset. The order matches ranking.Rank, ties included.
func (s *PostStore) Page(ctx context.Context, subreddit string, mode ranking.Mode, now time.Time, offset, limit int) ([]*models.Post, error) {
	q := s.db.WithContext(ctx).Model(&models.Post{})
	if subreddit != "" {
		q = q.Where("subreddit_slug = ?", subreddit)
	}
	if cutoff, ok := mode.Cutoff(now); ok {
		q = q.Where("created_on >= ?", cutoff)
	}
	switch {
	case mode.IsTop():
		q = q.Order("score DESC")
	case mode == ranking.Newest:
		q = q.Order("created_on DESC")
	case mode == ranking.Oldest:
		q = q.Order("created_on ASC")
	default:
		q = q.Select("posts.*, "+hotRatingSQL+" AS hot_rating", now, now).Order("hot_rating DESC")
	}

	var posts []*models.Post
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	return posts, nil
}

// CommentCounts returns the number of comments of each listed post.
func (s *PostStore) CommentCounts(ctx context.Context, ids []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		PostID uint
		Count  int
	}
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	for _, r := range rows {
		counts[r.PostID] = r.Count
	}
	return counts, nil
}

// SubredditExists reports whether slug names a visible subreddit.
func (s *PostStore) SubredditExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Subreddit{}).
		Where("slug = ? AND hidden = ?", slug, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up subreddit: %w", err)
	}
	return count > 0, nil
}
