package handlers

import (
	"threadly/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *services.UserService
	posts *services.PostService
}

func NewUserHandler(users *services.UserService, posts *services.PostService) *UserHandler {
	return &UserHandler{users: users, posts: posts}
}

// Profile GET /api/users/:username
func (h *UserHandler) Profile(c *gin.Context) {
	result, err := h.users.Profile(c.Request.Context(), c.Param("username"))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, result)
}

// Posts GET /api/users/:username/posts
func (h *UserHandler) Posts(c *gin.Context) {
	posts, err := h.posts.ListByAuthorUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, posts)
}

// Me GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	profile, err := h.users.Me(c.Request.Context(), currentUser(c))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, profile)
}
