package service

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误类别，配合 errors.Is 使用.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrIO                 = errors.New("io error")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrSchedulerOperation = errors.New("scheduler operation failed")
)

// forbiddenMessage 不区分"无权访问"与"不存在"的细节，避免跨租户泄露.
const forbiddenMessage = "access denied"

// Error 业务错误：类别 + 面向调用方的消息 + 可选的底层原因.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

// Unwrap 同时暴露类别与底层原因.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

func newError(kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// NotFound 记录不存在.
func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, nil, format, args...)
}

// Conflict 非法状态迁移或重复数据.
func Conflict(format string, args ...any) error {
	return newError(ErrConflict, nil, format, args...)
}

// Forbidden 租户归属不匹配，消息固定.
func Forbidden() error {
	return newError(ErrForbidden, nil, forbiddenMessage)
}

// IOError 存储或持久化失败.
func IOError(cause error, format string, args ...any) error {
	return newError(ErrIO, cause, format, args...)
}

// InvalidArgument 入参校验失败.
func InvalidArgument(cause error, format string, args ...any) error {
	return newError(ErrInvalidArgument, cause, format, args...)
}

// SchedulerError 后台任务内部错误，只记录不外抛.
func SchedulerError(cause error, format string, args ...any) error {
	return newError(ErrSchedulerOperation, cause, format, args...)
}

// Message 返回面向调用方的消息；非业务错误返回通用描述.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}

	return "internal error"
}

// HTTPStatus 把错误类别映射为 HTTP 状态码.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrIO):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
