package handlers

import (
	"net/http"
	"threadly/internal/apperrors"
	"threadly/internal/identity"
	"threadly/internal/middleware"
	"threadly/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// SessionHandler 用身份令牌换取会话 cookie，浏览器无需每次携带 token
type SessionHandler struct {
	verifier identity.Verifier
	users    *services.UserService
}

func NewSessionHandler(verifier identity.Verifier, users *services.UserService) *SessionHandler {
	return &SessionHandler{verifier: verifier, users: users}
}

type createSessionRequest struct {
	Token string `json:"token"`
}

// Create POST /api/session 登录
func (h *SessionHandler) Create(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		var req createSessionRequest
		_ = c.ShouldBindJSON(&req)
		token = req.Token
	}
	if token == "" {
		RenderError(c, apperrors.New(apperrors.CodeUnauthenticated, apperrors.MsgUnauthenticated))
		return
	}

	ctx := c.Request.Context()
	id, err := h.verifier.Verify(ctx, token)
	if err != nil {
		RenderError(c, apperrors.Wrap(apperrors.CodeUnauthenticated, apperrors.MsgUnauthenticated, err))
		return
	}
	user, err := h.users.EnsureUser(ctx, id)
	if err != nil {
		RenderError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		RenderError(c, err)
		return
	}

	profile, err := h.users.Me(ctx, user)
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, profile)
}

// Delete DELETE /api/session 退出登录
func (h *SessionHandler) Delete(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		RenderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
