package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"subboard/internal/utils"

	"gorm.io/gorm"
)

const (
	MaxTitleLength = 256
	MaxTextLength  = 10000
	MaxLinkLength  = 256
	slugSourceLen  = 100
)

type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Votable       `gorm:"embedded"`
	User          User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SubredditSlug string    `gorm:"size:100;not null;index" json:"subreddit"`
	Subreddit     Subreddit `gorm:"foreignKey:SubredditSlug;references:Slug;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Title         string    `gorm:"size:256;not null" json:"title"`
	Slug          string    `gorm:"size:256;not null" json:"slug"`
	Text          *string   `gorm:"type:text" json:"text,omitempty"`
	Link          *string   `gorm:"size:256" json:"link,omitempty"`

	// not stored; filled in by listing queries
	CommentCount int `gorm:"-" json:"comment_count"`
}

func (p *Post) VotableID() uint         { return p.ID }
func (p *Post) VotableTypeCode() string { return TypeCodePost }
func (p *Post) VotableState() *Votable  { return &p.Votable }

func (p *Post) IsTextPost() bool { return p.Text != nil }
func (p *Post) IsLinkPost() bool { return p.Link != nil }

// Validate enforces title presence, field lengths and text/link exclusivity.
func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(p.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title", ErrFieldTooLong)
	}
	hasText := p.Text != nil && *p.Text != ""
	hasLink := p.Link != nil && *p.Link != ""
	if hasText == hasLink {
		return ErrPostContent
	}
	if hasText && utf8.RuneCountInString(*p.Text) > MaxTextLength {
		return fmt.Errorf("%w: text", ErrFieldTooLong)
	}
	if hasLink && utf8.RuneCountInString(*p.Link) > MaxLinkLength {
		return fmt.Errorf("%w: link", ErrFieldTooLong)
	}
	return nil
}

// BeforeSave derives the slug from the first 100 characters of the title.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	p.Slug = SlugForTitle(p.Title)
	return nil
}

func SlugForTitle(title string) string {
	runes := []rune(title)
	if len(runes) > slugSourceLen {
		runes = runes[:slugSourceLen]
	}
	return utils.Slugify(string(runes))
}
