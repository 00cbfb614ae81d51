package db

import (
	"context"
	"fmt"

	"subboard/internal/models"

	"gorm.io/gorm"
)

// subtreeQuery selects a comment and every reply below it.
const subtreeQuery = `
WITH RECURSIVE subtree AS (
	SELECT id FROM comments WHERE id = ?
	UNION ALL
	SELECT c.id FROM comments c JOIN subtree s ON c.parent_id = s.id
)
SELECT id FROM subtree`

type CommentStore struct {
	db *gorm.DB
}

func NewCommentStore(gdb *gorm.DB) *CommentStore {
	return &CommentStore{db: gdb}
}

func (s *CommentStore) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ForPost returns up to limit comments of a post in creation order.
func (s *CommentStore) ForPost(ctx context.Context, postID uint, limit int) ([]*models.Comment, error) {
	var rows []*models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_on ASC").Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	return rows, nil
}

// ChildCounts counts the direct replies of each listed comment as they are
// stored right now.
func (s *CommentStore) ChildCounts(ctx context.Context, ids []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		ParentID uint
		Count    int
	}
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("parent_id, COUNT(*) AS count").
		Where("parent_id IN ?", ids).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count replies: %w", err)
	}
	for _, r := range rows {
		counts[r.ParentID] = r.Count
	}
	return counts, nil
}

// Retract blanks a comment's text but keeps it in the tree.
func (s *CommentStore) Retract(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted": true, "text": models.DeletedCommentText})
	if res.Error != nil {
		return fmt.Errorf("failed to retract comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes a comment, its replies and every vote on them, and returns
// how many comments were removed.
func (s *CommentStore) Remove(ctx context.Context, id uint) (int, error) {
	var removed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Raw(subtreeQuery, id).Scan(&ids).Error; err != nil {
			return fmt.Errorf("failed to collect replies: %w", err)
		}
		if len(ids) == 0 {
			return ErrNotFound
		}
		if err := tx.Where("target_type = ? AND target_id IN ?", models.TypeCodeComment, ids).
			Delete(&models.Vote{}).Error; err != nil {
			return fmt.Errorf("failed to delete comment votes: %w", err)
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Comment{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete comments: %w", res.Error)
		}
		removed = int(res.RowsAffected)
		return nil
	})
	return removed, err
}
