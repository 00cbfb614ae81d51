package services

import (
	"context"
	"fmt"

	"subboard/internal/comments"
	"subboard/internal/db"
	"subboard/internal/logging"
	"subboard/internal/models"
	"subboard/internal/utils"
	"subboard/internal/votes"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostDetail is a post with its rendered body, the viewer's votes and the
// assembled comment forest.
type PostDetail struct {
	Post         *models.Post             `json:"post"`
	HTML         string                   `json:"html,omitempty"`
	Vote         votes.Direction          `json:"vote"`
	Comments     comments.Forest          `json:"comments"`
	CommentHTML  map[uint]string          `json:"comment_html"`
	CommentVotes map[uint]votes.Direction `json:"comment_votes"`
}

// ContentService creates and removes posts and comments. Every new item is
// committed together with its author's upvote.
type ContentService struct {
	db         *gorm.DB
	posts      *db.PostStore
	comments   *db.CommentStore
	voteStore  *db.VoteStore
	votes      *votes.Service
	listings   *ListingService
	fetchLimit int
	logger     *zap.Logger
}

func NewContentService(gdb *gorm.DB, voteStore *db.VoteStore, voteSvc *votes.Service, listings *ListingService, fetchLimit int, logger *zap.Logger) *ContentService {
	if fetchLimit <= 0 {
		fetchLimit = comments.FetchLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		db:         gdb,
		posts:      db.NewPostStore(gdb),
		comments:   db.NewCommentStore(gdb),
		voteStore:  voteStore,
		votes:      voteSvc,
		listings:   listings,
		fetchLimit: fetchLimit,
		logger:     logger,
	}
}

func (s *ContentService) CreatePost(ctx context.Context, author uint, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}
	ok, err := s.posts.SubredditExists(ctx, post.SubredditSlug)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSubredditNotFound, post.SubredditSlug)
	}

	post.ID = 0
	post.UserID = author
	post.Votes, post.Score = 0, 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		_, err := s.votes.Seed(ctx, s.voteStore.Bind(tx), author, post)
		return err
	})
	if err != nil {
		return err
	}

	if s.listings != nil {
		s.listings.Invalidate()
	}
	logging.WithUser(s.logger, author).Info("post created", zap.Uint("post_id", post.ID), zap.String("subreddit", post.SubredditSlug))
	return nil
}

func (s *ContentService) CreateComment(ctx context.Context, author uint, c *models.Comment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := s.posts.Get(ctx, c.PostID); err != nil {
		return err
	}
	if c.ParentID != nil {
		parent, err := s.comments.Get(ctx, *c.ParentID)
		if err != nil {
			return err
		}
		if parent.PostID != c.PostID {
			return models.ErrParentMismatch
		}
	}

	c.ID = 0
	c.UserID = author
	c.Votes, c.Score = 0, 0
	c.Deleted = false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		_, err := s.votes.Seed(ctx, s.voteStore.Bind(tx), author, c)
		return err
	})
	if err != nil {
		return err
	}
	logging.WithUser(s.logger, author).Info("comment created", zap.Uint("comment_id", c.ID), zap.Uint("post_id", c.PostID))
	return nil
}

// RetractComment lets an author blank their comment. The node stays in the
// tree so replies keep their place.
func (s *ContentService) RetractComment(ctx context.Context, user, id uint) error {
	c, err := s.comments.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.UserID != user {
		return ErrForbidden
	}
	return s.comments.Retract(ctx, id)
}

// RemoveComment deletes an author's comment with all of its replies and
// their votes.
func (s *ContentService) RemoveComment(ctx context.Context, user, id uint) (int, error) {
	c, err := s.comments.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if c.UserID != user {
		return 0, ErrForbidden
	}
	removed, err := s.comments.Remove(ctx, id)
	if err != nil {
		return 0, err
	}
	s.logger.Info("comment removed", zap.Uint("comment_id", id), zap.Int("removed", removed))
	return removed, nil
}

// PostDetail loads a post for viewer. A zero viewer is anonymous and gets no
// votes.
func (s *ContentService) PostDetail(ctx context.Context, postID, viewer uint) (*PostDetail, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	rows, err := s.comments.ForPost(ctx, postID, s.fetchLimit)
	if err != nil {
		return nil, err
	}

	forest := comments.Assemble(rows, postID)
	ids := forest.IDs()
	counts, err := s.comments.ChildCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	forest.SetChildCounts(counts)

	detail := &PostDetail{
		Post:         post,
		Comments:     forest,
		CommentHTML:  make(map[uint]string, len(ids)),
		CommentVotes: map[uint]votes.Direction{},
	}
	if post.IsTextPost() {
		detail.HTML = utils.RenderMarkdown(*post.Text)
	}
	for n := range forest.All() {
		detail.CommentHTML[n.Comment.ID] = utils.RenderMarkdown(n.Comment.Text)
	}

	if viewer != 0 {
		if detail.Vote, err = s.votes.GetVote(ctx, viewer, post); err != nil {
			return nil, err
		}
		if detail.CommentVotes, err = s.voteStore.VotesByTargets(ctx, viewer, models.TypeCodeComment, ids); err != nil {
			return nil, err
		}
	}
	return detail, nil
}
