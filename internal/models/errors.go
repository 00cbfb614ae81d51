package models

import "errors"

var (
	ErrPostContent             = errors.New("a post must contain either a link or text content, not both")
	ErrEmptyTitle              = errors.New("post title is required")
	ErrEmptyComment            = errors.New("comment text is required")
	ErrFieldTooLong            = errors.New("field exceeds maximum length")
	ErrEmptySubredditName      = errors.New("subreddit name is required")
	ErrDisallowedSubredditName = errors.New("subreddit name is not allowed")
	ErrParentMismatch          = errors.New("parent comment belongs to a different post")
)
