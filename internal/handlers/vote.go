package handlers

import (
	"context"
	"net/http"

	"subboard/internal/middleware"
	"subboard/internal/models"
	"subboard/internal/utils"
	"subboard/internal/votes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VoteService is the part of votes.Service the handlers use.
type VoteService interface {
	ApplyVote(ctx context.Context, voter uint, target models.HasVotableState, d votes.Direction) (votes.Result, error)
	GetVote(ctx context.Context, voter uint, target models.HasVotableState) (votes.Direction, error)
}

// TargetLoader finds the entity a vote route points at.
type TargetLoader interface {
	LoadTarget(ctx context.Context, typeCode string, id uint) (models.HasVotableState, error)
}

type VoteHandler struct {
	votes   VoteService
	targets TargetLoader
	logger  *zap.Logger
}

func NewVoteHandler(votes VoteService, targets TargetLoader, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, targets: targets, logger: logger}
}

type voteRequest struct {
	Direction string `json:"direction" binding:"required"`
}

// routeTypes accepts both the readable names and the raw type codes.
var routeTypes = map[string]string{
	"post":                 models.TypeCodePost,
	"comment":              models.TypeCodeComment,
	models.TypeCodePost:    models.TypeCodePost,
	models.TypeCodeComment: models.TypeCodeComment,
}

// Vote applies the session user's vote. Repeating a direction cancels it.
func (h *VoteHandler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "direction is required")
		return
	}
	dir, err := votes.ParseDirection(req.Direction)
	if err != nil {
		RenderError(c, h.logger, err)
		return
	}
	target, ok := h.loadTarget(c)
	if !ok {
		return
	}

	res, err := h.votes.ApplyVote(c.Request.Context(), middleware.CurrentUserID(c), target, dir)
	if err != nil {
		RenderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Show returns the session user's current direction on the target.
func (h *VoteHandler) Show(c *gin.Context) {
	target, ok := h.loadTarget(c)
	if !ok {
		return
	}
	dir, err := h.votes.GetVote(c.Request.Context(), middleware.CurrentUserID(c), target)
	if err != nil {
		RenderError(c, h.logger, err)
		return
	}
	state := target.VotableState()
	c.JSON(http.StatusOK, gin.H{"vote": dir, "votes": state.Votes, "score": state.Score})
}

func (h *VoteHandler) loadTarget(c *gin.Context) (models.HasVotableState, bool) {
	code, ok := routeTypes[c.Param("type")]
	if !ok {
		badRequest(c, votes.ErrInvalidTargetType.Error())
		return nil, false
	}
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
		return nil, false
	}
	target, err := h.targets.LoadTarget(c.Request.Context(), code, id)
	if err != nil {
		RenderError(c, h.logger, err)
		return nil, false
	}
	return target, true
}
