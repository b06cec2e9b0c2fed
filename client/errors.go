package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error 客户端错误
type Error struct {
	Code    int
	Message string
	// HTTPStatus HTTP 状态码（仅 HTTP 传输错误时非零）
	HTTPStatus int
	// RPCCode JSON-RPC 错误码（仅 ErrCodeRPCError 时有效）
	RPCCode int
	// Data JSON-RPC 错误附带的原始数据
	Data json.RawMessage
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client error [%d]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("client error [%d]: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// 错误码定义
const (
	ErrCodeNetwork         = 1000 // 网络错误
	ErrCodeTimeout         = 1001 // 超时错误
	ErrCodeInvalidResponse = 1002 // 无效响应
	ErrCodeRPCError        = 1003 // JSON-RPC错误
	ErrCodeNotSupported    = 1004 // 不支持的操作
	ErrCodeHTTPStatus      = 1005 // 非 2xx HTTP 状态
)

// NewNetworkError 创建网络错误
func NewNetworkError(err error) *Error {
	return &Error{
		Code:    ErrCodeNetwork,
		Message: "network error",
		Err:     err,
	}
}

// NewTimeoutError 创建超时错误
func NewTimeoutError() *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: "request timeout",
	}
}

// NewInvalidResponseError 创建无效响应错误
func NewInvalidResponseError(message string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidResponse,
		Message: message,
		Err:     err,
	}
}

// NewRPCError 创建JSON-RPC错误
func NewRPCError(code int, message string, data json.RawMessage) *Error {
	return &Error{
		Code:    ErrCodeRPCError,
		Message: fmt.Sprintf("RPC error [%d]: %s", code, message),
		RPCCode: code,
		Data:    data,
	}
}

// NewHTTPStatusError 创建 HTTP 状态错误
func NewHTTPStatusError(status int, body []byte) *Error {
	msg := http.StatusText(status)
	if len(body) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, truncate(string(body), 256))
	}
	return &Error{
		Code:       ErrCodeHTTPStatus,
		Message:    msg,
		HTTPStatus: status,
	}
}

// NewNotSupportedError 创建不支持的操作错误
func NewNotSupportedError(operation string) *Error {
	return &Error{
		Code:    ErrCodeNotSupported,
		Message: fmt.Sprintf("operation not supported: %s", operation),
	}
}

// IsNotFound 是否为 HTTP 404
func IsNotFound(err error) bool {
	var cerr *Error
	return errors.As(err, &cerr) && cerr.HTTPStatus == http.StatusNotFound
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
