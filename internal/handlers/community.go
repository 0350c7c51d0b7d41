package handlers

import (
	"net/http"
	"threadly/internal/apperrors"
	"threadly/internal/config"
	"threadly/internal/db"
	"threadly/internal/models"
	"threadly/internal/services"

	"github.com/gin-gonic/gin"
)

// CommunityHandler 社区接口
type CommunityHandler struct {
	communities    *services.CommunityService
	posts          *services.PostService
	notFoundPolicy string
}

// NewCommunityHandler notFoundPolicy 决定社区不存在时帖子列表的返回方式：
// config.NotFoundPolicyEmpty 返回空数组，config.NotFoundPolicyExplicit 返回 404
func NewCommunityHandler(communities *services.CommunityService, posts *services.PostService, notFoundPolicy string) *CommunityHandler {
	return &CommunityHandler{communities: communities, posts: posts, notFoundPolicy: notFoundPolicy}
}

type createCommunityRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// Create POST /api/communities 创建社区
func (h *CommunityHandler) Create(c *gin.Context) {
	var req createCommunityRequest
	if !bindJSON(c, &req) {
		return
	}
	community, err := h.communities.Create(c.Request.Context(), currentUser(c), req.Name, req.Description)
	if err != nil {
		RenderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

// List GET /api/communities 社区列表
func (h *CommunityHandler) List(c *gin.Context) {
	communities, err := h.communities.List(c.Request.Context())
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, communities)
}

// Get GET /api/communities/:name 社区详情
func (h *CommunityHandler) Get(c *gin.Context) {
	result, err := h.communities.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, result)
}

// Search GET /api/communities/search?q= 搜索社区
func (h *CommunityHandler) Search(c *gin.Context) {
	results, err := h.communities.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, results)
}

// Posts GET /api/communities/:name/posts[?sort=hot] 社区帖子
func (h *CommunityHandler) Posts(c *gin.Context) {
	var order db.PostOrder
	switch c.DefaultQuery("sort", "new") {
	case "new":
		order = db.OrderCreated
	case "hot":
		order = db.OrderHot
	default:
		RenderError(c, apperrors.New(apperrors.CodeInvalidArgument, "sort must be new or hot"))
		return
	}

	result, err := h.posts.ListByCommunityName(c.Request.Context(), c.Param("name"), order)
	if err != nil {
		RenderError(c, err)
		return
	}
	if !result.IsFound() {
		if h.notFoundPolicy == config.NotFoundPolicyExplicit {
			RenderError(c, apperrors.New(apperrors.CodeNotFound, apperrors.MsgCommunityNotFound))
			return
		}
		ok(c, []models.EnrichedPost{})
		return
	}
	ok(c, *result.Value)
}
