package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"subboard/internal/comments"
	"subboard/internal/db"
	"subboard/internal/middleware"
	"subboard/internal/models"
	"subboard/internal/ranking"
	"subboard/internal/services"
	"subboard/internal/votes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memTargets struct{ store *votes.MemoryStore }

func (m memTargets) LoadTarget(ctx context.Context, code string, id uint) (models.HasVotableState, error) {
	t := votes.Target{ID: id, TypeCode: code}
	tally, err := m.store.LoadCounters(ctx, t)
	if err != nil {
		return nil, db.ErrNotFound
	}
	var v models.HasVotableState
	if code == models.TypeCodePost {
		v = &models.Post{ID: id}
	} else {
		v = &models.Comment{ID: id}
	}
	v.VotableState().Votes, v.VotableState().Score = tally.Votes, tally.Score
	return v, nil
}

type failingVotes struct{ err error }

func (f failingVotes) ApplyVote(context.Context, uint, models.HasVotableState, votes.Direction) (votes.Result, error) {
	return votes.Result{}, f.err
}

func (f failingVotes) GetVote(context.Context, uint, models.HasVotableState) (votes.Direction, error) {
	return votes.None, f.err
}

type fakeContent struct {
	created  []*models.Post
	comments []*models.Comment
	retract  error
}

func (f *fakeContent) CreatePost(_ context.Context, author uint, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}
	post.ID = uint(len(f.created) + 1)
	post.UserID = author
	f.created = append(f.created, post)
	return nil
}

func (f *fakeContent) CreateComment(_ context.Context, author uint, c *models.Comment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.ID = 1
	c.UserID = author
	f.comments = append(f.comments, c)
	return nil
}

func (f *fakeContent) RetractComment(context.Context, uint, uint) error { return f.retract }

func (f *fakeContent) RemoveComment(context.Context, uint, uint) (int, error) { return 3, nil }

func (f *fakeContent) PostDetail(_ context.Context, postID, viewer uint) (*services.PostDetail, error) {
	if postID != 1 {
		return nil, db.ErrNotFound
	}
	parent := uint(10)
	rows := []*models.Comment{{ID: 10, PostID: 1, Text: "a"}, {ID: 11, PostID: 1, ParentID: &parent, Text: "b"}}
	return &services.PostDetail{
		Post:         &models.Post{ID: 1, Title: "hello"},
		Vote:         votes.Up,
		Comments:     comments.Assemble(rows, 1),
		CommentVotes: map[uint]votes.Direction{},
	}, nil
}

type fakeListings struct {
	gotSub  string
	gotMode ranking.Mode
	gotPage int
}

func (f *fakeListings) List(_ context.Context, sub string, mode ranking.Mode, page int) (*services.Listing, error) {
	f.gotSub, f.gotMode, f.gotPage = sub, mode, page
	return &services.Listing{Subreddit: sub, Mode: mode, Page: page, Posts: []*models.Post{}}, nil
}

// asUser stands in for the session middleware.
func asUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != 0 {
			c.Set(middleware.CheckUserKey, &models.User{ID: id})
		}
		c.Next()
	}
}

func newRouter(user uint, vh *VoteHandler, sh *StoryHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(user))
	api := r.Group("/api")
	api.GET("/posts", sh.List)
	api.GET("/posts/:id", sh.Detail)
	authed := api.Group("", middleware.AuthRequired())
	authed.POST("/posts", sh.Create)
	authed.POST("/posts/:id/comments", sh.CreateComment)
	authed.DELETE("/comments/:id", sh.DeleteComment)
	authed.POST("/vote/:type/:id", vh.Vote)
	authed.GET("/vote/:type/:id", vh.Show)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func voteRouter(t *testing.T, user uint) (*gin.Engine, *votes.MemoryStore) {
	t.Helper()
	store := votes.NewMemoryStore()
	store.Put(votes.Target{ID: 5, TypeCode: models.TypeCodePost}, votes.Tally{Votes: 1, Score: 1})
	store.Put(votes.Target{ID: 6, TypeCode: models.TypeCodeComment}, votes.Tally{})
	vh := NewVoteHandler(votes.NewService(store), memTargets{store}, zap.NewNop())
	sh := NewStoryHandler(&fakeContent{}, &fakeListings{}, zap.NewNop())
	return newRouter(user, vh, sh), store
}

func TestVoteHandler_Toggle(t *testing.T) {
	r, _ := voteRouter(t, 7)

	w := do(r, http.MethodPost, "/api/vote/post/5", `{"direction":"up"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"votes":2,"score":2,"vote":"up"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/vote/p/5", `{"direction":"down"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"votes":2,"score":0,"vote":"down"}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/vote/post/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"vote":"down","votes":2,"score":0}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/vote/post/5", `{"direction":"down"}`)
	assert.JSONEq(t, `{"votes":1,"score":1,"vote":null}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/vote/comment/6", `{"direction":"d"}`)
	assert.JSONEq(t, `{"votes":1,"score":-1,"vote":"down"}`, w.Body.String())
}

func TestVoteHandler_BadInput(t *testing.T) {
	r, _ := voteRouter(t, 7)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/vote/story/5", `{"direction":"up"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/vote/post/abc", `{"direction":"up"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/vote/post/5", `{"direction":"sideways"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/vote/post/5", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/vote/post/99", `{"direction":"up"}`).Code)
}

func TestVoteHandler_RequiresUser(t *testing.T) {
	r, store := voteRouter(t, 0)

	w := do(r, http.MethodPost, "/api/vote/post/5", `{"direction":"up"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, store.Rows(0, votes.Target{ID: 5, TypeCode: models.TypeCodePost}))
}

func TestVoteHandler_ErrorStatus(t *testing.T) {
	store := votes.NewMemoryStore()
	store.Put(votes.Target{ID: 5, TypeCode: models.TypeCodePost}, votes.Tally{})
	sh := NewStoryHandler(&fakeContent{}, &fakeListings{}, zap.NewNop())

	cases := map[error]int{
		votes.ErrVoteConflict: http.StatusConflict,
		&votes.StorageError{Op: "persist", Err: errors.New("secret dsn")}: http.StatusServiceUnavailable,
		errors.New("unexpected"): http.StatusInternalServerError,
	}
	for err, code := range cases {
		vh := NewVoteHandler(failingVotes{err}, memTargets{store}, zap.NewNop())
		w := do(newRouter(7, vh, sh), http.MethodPost, "/api/vote/post/5", `{"direction":"up"}`)
		assert.Equal(t, code, w.Code, err.Error())
		assert.NotContains(t, w.Body.String(), "secret")
	}
}

func TestStoryHandler_List(t *testing.T) {
	listings := &fakeListings{}
	r := newRouter(0, nil, NewStoryHandler(&fakeContent{}, listings, zap.NewNop()))

	w := do(r, http.MethodGet, "/api/posts?sort=top-past-week&subreddit=general&page=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "general", listings.gotSub)
	assert.Equal(t, ranking.TopPastWeek, listings.gotMode)
	assert.Equal(t, 3, listings.gotPage)

	do(r, http.MethodGet, "/api/posts?sort=bogus&page=-1", "")
	assert.Equal(t, ranking.Hot, listings.gotMode)
	assert.Equal(t, 1, listings.gotPage)
}

func TestStoryHandler_Detail(t *testing.T) {
	r := newRouter(0, nil, NewStoryHandler(&fakeContent{}, &fakeListings{}, zap.NewNop()))

	w := do(r, http.MethodGet, "/api/posts/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"child_comment_count":0`)
	assert.Contains(t, w.Body.String(), `"vote":"up"`)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/posts/2", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/posts/x", "").Code)
}

func TestStoryHandler_Create(t *testing.T) {
	content := &fakeContent{}
	r := newRouter(4, nil, NewStoryHandler(content, &fakeListings{}, zap.NewNop()))

	w := do(r, http.MethodPost, "/api/posts", `{"subreddit":"general","title":"Hi","text":"there"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, content.created, 1)
	assert.Equal(t, uint(4), content.created[0].UserID)

	w = do(r, http.MethodPost, "/api/posts", `{"subreddit":"general","title":"Hi","text":"a","link":"b"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "either a link or text")

	w = do(r, http.MethodPost, "/api/posts/1/comments", `{"text":"nice"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, uint(1), content.comments[0].PostID)

	w = do(r, http.MethodPost, "/api/posts/1/comments", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoryHandler_DeleteComment(t *testing.T) {
	content := &fakeContent{}
	r := newRouter(4, nil, NewStoryHandler(content, &fakeListings{}, zap.NewNop()))

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/api/comments/1", "").Code)

	w := do(r, http.MethodDelete, "/api/comments/1?purge=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":3}`, w.Body.String())

	content.retract = services.ErrForbidden
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, "/api/comments/1", "").Code)
}
