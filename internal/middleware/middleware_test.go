package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"subboard/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[uint]*models.User

func (f fakeUsers) Get(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func newEngine(users UserLookup, handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("subboard", cookie.NewStore([]byte("test-secret"))))
	r.GET("/login/:id", func(c *gin.Context) {
		s := sessions.Default(c)
		var id uint
		for _, ch := range c.Param("id") {
			id = id*10 + uint(ch-'0')
		}
		s.Set(SessionUserKey, id)
		_ = s.Save()
		c.Status(http.StatusNoContent)
	})
	chain := append([]gin.HandlerFunc{LoadUser(users)}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentUserID(c)})
	})
	r.GET("/me", chain...)
	return r
}

func loginCookie(t *testing.T, r *gin.Engine, id string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/"+id, nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func get(r *gin.Engine, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoadUser(t *testing.T) {
	r := newEngine(fakeUsers{7: {ID: 7, Username: "alice"}})

	w := get(r, loginCookie(t, r, "7"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())

	w = get(r, nil)
	assert.JSONEq(t, `{"user_id":0}`, w.Body.String())

	w = get(r, loginCookie(t, r, "8"))
	assert.JSONEq(t, `{"user_id":0}`, w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	r := newEngine(fakeUsers{7: {ID: 7}}, AuthRequired())

	w := get(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"login required"}`, w.Body.String())

	w = get(r, loginCookie(t, r, "7"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := NewUserRateLimiter(0.001, 2)
	r := newEngine(fakeUsers{7: {ID: 7}, 8: {ID: 8}}, AuthRequired(), RateLimit(limiter))
	seven := loginCookie(t, r, "7")

	assert.Equal(t, http.StatusOK, get(r, seven).Code)
	assert.Equal(t, http.StatusOK, get(r, seven).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, seven).Code)

	assert.Equal(t, http.StatusOK, get(r, loginCookie(t, r, "8")).Code)
}

func TestSessionUserID(t *testing.T) {
	for _, v := range []any{uint(3), 3, int64(3), float64(3)} {
		id, ok := sessionUserID(v)
		assert.True(t, ok)
		assert.Equal(t, uint(3), id)
	}
	_, ok := sessionUserID("3")
	assert.False(t, ok)
	_, ok = sessionUserID(0)
	assert.False(t, ok)
}
