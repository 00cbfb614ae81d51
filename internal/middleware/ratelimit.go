package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedUsers = 10000

// UserRateLimiter hands out one token bucket per user. The least recently
// seen users are forgotten once maxTrackedUsers is reached.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[uint, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func NewUserRateLimiter(perSecond float64, burst int) *UserRateLimiter {
	cache, _ := lru.New[uint, *rate.Limiter](maxTrackedUsers)
	return &UserRateLimiter{limiters: cache, rate: rate.Limit(perSecond), burst: burst}
}

// Allow reports whether userID may act now.
func (l *UserRateLimiter) Allow(userID uint) bool {
	l.mu.Lock()
	limiter, ok := l.limiters.Get(userID)
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters.Add(userID, limiter)
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// RateLimit rejects requests of users that exceeded their budget. It must
// run after AuthRequired.
func RateLimit(l *UserRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(CurrentUserID(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
