package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DeletedCommentText replaces the body of a retracted comment.
const DeletedCommentText = "[deleted]"

type Comment struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Votable  `gorm:"embedded"`
	User     User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	PostID   uint     `gorm:"not null;index" json:"post_id"`
	Post     Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID *uint    `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent   *Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Text     string   `gorm:"type:text;not null" json:"text"`
	Deleted  bool     `gorm:"not null;default:false" json:"deleted"`
}

func (c *Comment) VotableID() uint         { return c.ID }
func (c *Comment) VotableTypeCode() string { return TypeCodeComment }
func (c *Comment) VotableState() *Votable  { return &c.Votable }

func (c *Comment) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return ErrEmptyComment
	}
	if utf8.RuneCountInString(c.Text) > MaxTextLength {
		return fmt.Errorf("%w: text", ErrFieldTooLong)
	}
	return nil
}
