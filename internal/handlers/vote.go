package handlers

import (
	"threadly/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Upvote POST /api/posts/:id/upvote，再次点赞取消
func (h *VoteHandler) Upvote(c *gin.Context) {
	tally, err := h.votes.Upvote(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, tally)
}

// Downvote POST /api/posts/:id/downvote，再次点踩取消
func (h *VoteHandler) Downvote(c *gin.Context) {
	tally, err := h.votes.Downvote(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, tally)
}

// Counts GET /api/posts/:id/votes 票数
func (h *VoteHandler) Counts(c *gin.Context) {
	tally, err := h.votes.Counts(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, tally)
}
