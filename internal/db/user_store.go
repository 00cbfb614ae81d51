package db

import (
	"context"
	"fmt"

	"subboard/internal/models"

	"gorm.io/gorm"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(gdb *gorm.DB) *UserStore {
	return &UserStore{db: gdb}
}

func (s *UserStore) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// AddKarma applies accumulated karma deltas in one transaction.
func (s *UserStore) AddKarma(ctx context.Context, deltas map[uint]int) error {
	if len(deltas) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for userID, delta := range deltas {
			if delta == 0 {
				continue
			}
			err := tx.Model(&models.User{}).
				Where("id = ?", userID).
				UpdateColumn("karma", gorm.Expr("karma + ?", delta)).Error
			if err != nil {
				return fmt.Errorf("failed to update karma of user %d: %w", userID, err)
			}
		}
		return nil
	})
}
