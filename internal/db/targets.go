package db

import (
	"context"
	"fmt"

	"subboard/internal/models"
	"subboard/internal/votes"

	"gorm.io/gorm"
)

// TargetStore loads votable entities by type code.
type TargetStore struct {
	posts    *PostStore
	comments *CommentStore
}

func NewTargetStore(gdb *gorm.DB) *TargetStore {
	return &TargetStore{posts: NewPostStore(gdb), comments: NewCommentStore(gdb)}
}

func (s *TargetStore) LoadTarget(ctx context.Context, typeCode string, id uint) (models.HasVotableState, error) {
	switch typeCode {
	case models.TypeCodePost:
		post, err := s.posts.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return post, nil
	case models.TypeCodeComment:
		c, err := s.comments.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: got %q", votes.ErrInvalidTargetType, typeCode)
}
