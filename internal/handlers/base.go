package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"threadly/internal/apperrors"
	"threadly/internal/middleware"
	"threadly/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    apperrors.Code `json:"code"`
		Message string         `json:"message"`
	} `json:"error"`
}

// RenderError writes err as {"error":{"code","message"}}. Unexpected errors
// are logged and reported with a generic message.
func RenderError(c *gin.Context, err error) {
	e := apperrors.As(err)
	if e.Code == apperrors.CodeInternal {
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		_ = c.Error(err)
	}
	var body errorBody
	body.Error.Code = e.Code
	body.Error.Message = e.Message
	c.AbortWithStatusJSON(e.Code.HTTPStatus(), body)
}

// bindJSON binds the request body, rendering a 400 on failure.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RenderError(c, apperrors.Wrap(apperrors.CodeInvalidArgument, validationMessage(err), err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

func ok(c *gin.Context, v interface{}) {
	c.JSON(http.StatusOK, v)
}
