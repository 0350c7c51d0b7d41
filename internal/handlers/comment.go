package handlers

import (
	"net/http"
	"threadly/internal/models"
	"threadly/internal/services"

	"github.com/gin-gonic/gin"
)

// CommentHandler 评论接口
type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentList struct {
	Comments []models.EnrichedComment `json:"comments"`
	Count    int64                    `json:"count"`
}

// List GET /api/posts/:id/comments 评论列表
func (h *CommentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	postID := c.Param("id")
	comments, err := h.comments.List(ctx, postID)
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, commentList{Comments: comments, Count: h.comments.Count(ctx, postID)})
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}

// Create POST /api/posts/:id/comments 发表评论
func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), currentUser(c), c.Param("id"), req.Content)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Delete DELETE /api/comments/:id 删除评论，仅作者可删
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
