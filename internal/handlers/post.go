package handlers

import (
	"net/http"
	"threadly/internal/services"

	"github.com/gin-gonic/gin"
)

// PostHandler 帖子接口
type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type createPostRequest struct {
	Subject   string  `json:"subject" binding:"required,max=300"`
	Body      string  `json:"body" binding:"max=40000"`
	Community string  `json:"community" binding:"required"`
	Image     *string `json:"image"`
}

// Create POST /api/posts 发帖
func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.posts.Create(c.Request.Context(), currentUser(c), services.CreatePostInput{
		Subject:     req.Subject,
		Body:        req.Body,
		CommunityID: req.Community,
		Image:       req.Image,
	})
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Get GET /api/posts/:id 帖子详情
func (h *PostHandler) Get(c *gin.Context) {
	result, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, result)
}

// Delete DELETE /api/posts/:id 删帖
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search GET /api/posts/search?q=&community= 社区内搜索帖子
func (h *PostHandler) Search(c *gin.Context) {
	results, err := h.posts.Search(c.Request.Context(), c.Query("q"), c.Query("community"))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, results)
}
