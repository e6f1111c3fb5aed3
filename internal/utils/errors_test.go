package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorIs(t *testing.T) {
	err := NewNotFoundError("题目不存在: %d", 7)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "题目不存在: 7", err.Error())

	wrapped := fmt.Errorf("load: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestGetHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"authentication", NewAuthenticationError("login"), http.StatusUnauthorized},
		{"authorization", NewAuthorizationError("nope"), http.StatusForbidden},
		{"not found", NewNotFoundError("gone"), http.StatusNotFound},
		{"conflict", NewConflictError("state"), http.StatusConflict},
		{"app error", NewAppError(nil, "teapot", http.StatusTeapot), http.StatusTeapot},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"database", ErrDatabaseQuery, http.StatusInternalServerError},
		{"wrapped database", WrapError(ErrDatabaseInsert, "create tag"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatusCode(tt.err))
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, "", GetErrorCode(nil))
	assert.Equal(t, ErrCodeConflict, GetErrorCode(NewConflictError("x")))
	assert.Equal(t, ErrCodeDatabaseError, GetErrorCode(ErrDuplicateEntry))
	assert.Equal(t, ErrCodeInternalError, GetErrorCode(errors.New("boom")))

	appErr := NewAppError(nil, "custom", 418).WithContext("error_code", "TEAPOT")
	assert.Equal(t, "TEAPOT", GetErrorCode(appErr))
}
