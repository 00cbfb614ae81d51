package models

import (
	"time"
)

// Single-letter discriminators stored in Vote.TargetType.
const (
	TypeCodePost    = "p"
	TypeCodeComment = "c"
)

// Votable holds the cached counters shared by posts and comments.
// Score and Votes are only written by the vote service.
type Votable struct {
	Score     int       `gorm:"not null;default:0" json:"score"`
	Votes     int       `gorm:"not null;default:0" json:"votes"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedOn time.Time `gorm:"not null;index;autoCreateTime" json:"created_on"`
	UpdatedOn time.Time `gorm:"not null;autoUpdateTime" json:"updated_on"`
}

// HasVotableState is implemented by every entity users can vote on.
type HasVotableState interface {
	VotableID() uint
	VotableTypeCode() string
	VotableState() *Votable
}

// ValidTypeCode reports whether code is a usable single-character discriminator.
func ValidTypeCode(code string) bool {
	return len(code) == 1
}
