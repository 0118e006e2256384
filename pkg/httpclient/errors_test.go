package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/revant7/trezora-frontend-sub000/pkg/errors"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_DetailMessage(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusUnauthorized, `{"detail":"token has expired"}`))

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "token has expired", appErr.Message)
}

func TestParseResponseError_FieldErrors(t *testing.T) {
	body := `{"email":["already registered"],"password":["too short"]}`
	err := ParseResponseError(fakeResponse(http.StatusBadRequest, body))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "email: already registered")
	assert.Contains(t, appErr.Message, "password: too short")
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusBadRequest, "not json at all"))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Contains(t, appErr.Message, "400")
}

func TestParseResponseError_ServerErrorIsUnavailable(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusBadGateway, `{"detail":"upstream exploded"}`))

	assert.True(t, errors.Is(err, apperrors.ErrUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(err))
}

func TestParseResponseError_NotFound(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusNotFound, `{"message":"no such product"}`))

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(http.StatusBadRequest))
	assert.True(t, IsClientError(http.StatusNotFound))
	assert.False(t, IsClientError(http.StatusInternalServerError))
	assert.False(t, IsClientError(http.StatusOK))
}
