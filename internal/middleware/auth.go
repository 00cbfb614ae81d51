package middleware

import (
	"context"
	"net/http"

	"subboard/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CheckUserKey   = "user"
	SessionUserKey = "user_id"
)

// UserLookup loads the user a session points at.
type UserLookup interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// LoadUser retrieves the session user, if any, and stores it on the context.
func LoadUser(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if id, ok := sessionUserID(session.Get(SessionUserKey)); ok {
			if user, err := users.Get(c.Request.Context(), id); err == nil {
				c.Set(CheckUserKey, user)
			}
		}
		c.Next()
	}
}

// AuthRequired rejects requests without a loaded user.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user LoadUser stored, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// CurrentUserID is the session user's id, or 0 for anonymous requests.
func CurrentUserID(c *gin.Context) uint {
	if user, ok := CurrentUser(c); ok {
		return user.ID
	}
	return 0
}

func sessionUserID(v any) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, id > 0
	case int:
		return uint(id), id > 0
	case int64:
		return uint(id), id > 0
	case float64:
		return uint(id), id > 0
	}
	return 0, false
}
