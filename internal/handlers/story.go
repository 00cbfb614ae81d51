package handlers

import (
	"context"
	"net/http"

	"subboard/internal/middleware"
	"subboard/internal/models"
	"subboard/internal/ranking"
	"subboard/internal/services"
	"subboard/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContentService is the part of services.ContentService the handlers use.
type ContentService interface {
	CreatePost(ctx context.Context, author uint, post *models.Post) error
	CreateComment(ctx context.Context, author uint, c *models.Comment) error
	RetractComment(ctx context.Context, user, id uint) error
	RemoveComment(ctx context.Context, user, id uint) (int, error)
	PostDetail(ctx context.Context, postID, viewer uint) (*services.PostDetail, error)
}

type ListingService interface {
	List(ctx context.Context, subreddit string, mode ranking.Mode, page int) (*services.Listing, error)
}

type StoryHandler struct {
	content  ContentService
	listings ListingService
	logger   *zap.Logger
}

func NewStoryHandler(content ContentService, listings ListingService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{content: content, listings: listings, logger: logger}
}

// List serves GET /api/posts?sort=&subreddit=&page=
func (h *StoryHandler) List(c *gin.Context) {
	mode := ranking.ParseMode(c.Query("sort"))
	page := utils.ParsePage(c.Query("page"))

	listing, err := h.listings.List(c.Request.Context(), c.Query("subreddit"), mode, page)
	if err != nil {
		RenderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *StoryHandler) Detail(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
		return
	}
	detail, err := h.content.PostDetail(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		RenderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type createPostRequest struct {
	Subreddit string  `json:"subreddit" binding:"required"`
	Title     string  `json:"title"`
	Text      *string `json:"text"`
	Link      *string `json:"link"`
}

func (h *StoryHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "subreddit is required")
		return
	}
	post := &models.Post{SubredditSlug: req.Subreddit, Title: req.Title, Text: req.Text, Link: req.Link}
	if err := h.content.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), post); err != nil {
		RenderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

type createCommentRequest struct {
	ParentID *uint  `json:"parent_id"`
	Text     string `json:"text"`
}

func (h *StoryHandler) CreateComment(c *gin.Context) {
	postID, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid comment")
		return
	}
	comment := &models.Comment{PostID: postID, ParentID: req.ParentID, Text: req.Text}
	if err := h.content.CreateComment(c.Request.Context(), middleware.CurrentUserID(c), comment); err != nil {
		RenderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment retracts the comment by default: its text is blanked but the
// row stays, so the parent's reply count is unchanged. With ?purge=true the
// comment, its replies and their votes are deleted and the parent's reply
// count drops at once.
func (h *StoryHandler) DeleteComment(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
		return
	}
	user := middleware.CurrentUserID(c)
	ctx := c.Request.Context()

	if c.Query("purge") == "true" {
		removed, err := h.content.RemoveComment(ctx, user, id)
		if err != nil {
			RenderError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": removed})
		return
	}
	if err := h.content.RetractComment(ctx, user, id); err != nil {
		RenderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
