package services

import "errors"

var (
	ErrForbidden         = errors.New("not allowed to modify this item")
	ErrSubredditNotFound = errors.New("subreddit not found")
)
