package models

import (
	"fmt"
	"strings"
	"time"

	"subboard/internal/utils"

	"gorm.io/gorm"
)

// DisallowedSubredditNames are reserved for aggregate listings.
var DisallowedSubredditNames = []string{"all", "random"}

type Subreddit struct {
	Slug      string    `gorm:"primaryKey;size:100" json:"slug"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Hidden    bool      `gorm:"not null;default:false" json:"hidden"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidateSubredditName(name string) error {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, disallowed := range DisallowedSubredditNames {
		if normalized == disallowed {
			return fmt.Errorf("%w: names can't be any of the following: %s",
				ErrDisallowedSubredditName, strings.Join(DisallowedSubredditNames, ","))
		}
	}
	if normalized == "" {
		return ErrEmptySubredditName
	}
	if len([]rune(name)) > 100 {
		return fmt.Errorf("%w: name", ErrFieldTooLong)
	}
	return nil
}

func (s *Subreddit) BeforeSave(tx *gorm.DB) error {
	if err := ValidateSubredditName(s.Name); err != nil {
		return err
	}
	if s.Slug == "" {
		s.Slug = utils.Slugify(s.Name)
	}
	return nil
}
