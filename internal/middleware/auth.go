package middleware

import (
	"context"
	"log/slog"
	"strings"
	"threadly/internal/apperrors"
	"threadly/internal/identity"
	"threadly/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// SessionUserKey is the session key holding the user id.
const SessionUserKey = "user_id"

// UserResolver maps a verified identity or a session user id to a user.
type UserResolver interface {
	EnsureUser(ctx context.Context, id identity.Identity) (*models.User, error)
	ByID(ctx context.Context, id string) (*models.User, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// LoadUser resolves the caller from a bearer token, falling back to the
// session cookie. Requests without a valid identity continue anonymously.
func LoadUser(verifier identity.Verifier, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token := BearerToken(c); token != "" {
			id, err := verifier.Verify(ctx, token)
			if err != nil {
				slog.DebugContext(ctx, "bearer token rejected", slog.String("error", err.Error()))
				c.Next()
				return
			}
			user, err := users.EnsureUser(ctx, id)
			if err != nil {
				slog.ErrorContext(ctx, "ensure user failed", slog.String("error", err.Error()))
				abortWithError(c, err)
				return
			}
			c.Set(CheckUserKey, user)
			c.Next()
			return
		}

		session := sessions.Default(c)
		if userID, ok := session.Get(SessionUserKey).(string); ok && userID != "" {
			user, err := users.ByID(ctx, userID)
			if err != nil {
				slog.ErrorContext(ctx, "load session user failed", slog.String("error", err.Error()))
			}
			if user != nil {
				c.Set(CheckUserKey, user)
			} else if err == nil {
				// user is gone, drop the stale session
				session.Delete(SessionUserKey)
				_ = session.Save()
			}
		}
		c.Next()
	}
}

// AuthRequired rejects anonymous requests with 401.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abortWithError(c, apperrors.New(apperrors.CodeUnauthenticated, apperrors.MsgUnauthenticated))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func abortWithError(c *gin.Context, err error) {
	e := apperrors.As(err)
	c.AbortWithStatusJSON(e.Code.HTTPStatus(), gin.H{"error": gin.H{"code": e.Code, "message": e.Message}})
}
