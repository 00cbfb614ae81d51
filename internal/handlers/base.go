package handlers

import (
	"errors"
	"net/http"

	"subboard/internal/db"
	"subboard/internal/models"
	"subboard/internal/services"
	"subboard/internal/votes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var badRequestErrors = []error{
	votes.ErrInvalidTargetType,
	votes.ErrInvalidDirection,
	models.ErrPostContent,
	models.ErrEmptyTitle,
	models.ErrEmptyComment,
	models.ErrFieldTooLong,
	models.ErrParentMismatch,
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, votes.ErrTargetNotFound), errors.Is(err, services.ErrSubredditNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, votes.ErrVoteConflict):
		return http.StatusConflict
	case errors.Is(err, votes.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// RenderError writes err as a JSON body. Server errors are logged and their
// details hidden.
func RenderError(c *gin.Context, log *zap.Logger, err error) {
	code := statusFor(err)
	message := err.Error()
	if code >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = http.StatusText(code)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
