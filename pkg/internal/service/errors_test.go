package service_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeisme/ingestvault/pkg/internal/service"
)

// TestError_Kinds 错误类别可以穿透 fmt.Errorf 包装.
func TestError_Kinds(t *testing.T) {
	cause := errors.New("connection reset")

	cases := []struct {
		err    error
		kind   error
		status int
	}{
		{service.NotFound("batch %s not found", "b1"), service.ErrNotFound, http.StatusNotFound},
		{service.Conflict("batch already completed"), service.ErrConflict, http.StatusConflict},
		{service.Forbidden(), service.ErrForbidden, http.StatusForbidden},
		{service.IOError(cause, "store file"), service.ErrIO, http.StatusBadGateway},
		{service.InvalidArgument(nil, "no files"), service.ErrInvalidArgument, http.StatusBadRequest},
	}

	for _, tc := range cases {
		wrapped := fmt.Errorf("handler: %w", tc.err)

		assert.ErrorIs(t, wrapped, tc.kind)
		assert.Equal(t, tc.status, service.HTTPStatus(wrapped))
	}

	assert.ErrorIs(t, service.IOError(cause, "store file"), cause)
	assert.Equal(t, http.StatusInternalServerError, service.HTTPStatus(cause))
}

// TestError_Message 禁止访问的消息固定，不泄露细节.
func TestError_Message(t *testing.T) {
	assert.Equal(t, "access denied", service.Message(service.Forbidden()))
	assert.Equal(t, "batch already completed", service.Message(service.Conflict("batch already completed")))
	assert.Equal(t, "internal error", service.Message(errors.New("boom")))
	assert.Equal(t, "store file: boom", service.IOError(errors.New("boom"), "store file").Error())
}
