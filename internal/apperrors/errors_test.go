package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("create: %w", New(CodeDuplicateName, MsgCommunityExists))

	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, MsgCommunityExists, As(err).Message)
}

func TestAsWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("disk full")
	e := As(cause)

	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, MsgInternal, e.Message)
	assert.ErrorIs(t, e, cause)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, CodeDuplicateName.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, CodeNotFound.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, CodeUnauthorized.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, CodeUnauthenticated.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, CodeInvalidArgument.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, CodeInternal.HTTPStatus())
}
