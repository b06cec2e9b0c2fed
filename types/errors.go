package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode 交易构建错误码
type ErrorCode string

// ErrorCode 常量
const (
	// 地址无法解码，或地址类型与调用场景不符（如需要奖励地址却传入基础地址）
	ErrCodeInvalidAddress ErrorCode = "INVALID_ADDRESS"
	// 需要可签名凭证（key hash）却得到脚本凭证
	ErrCodeUnsupportedCredentialType ErrorCode = "UNSUPPORTED_CREDENTIAL_TYPE"
	// 单次铸造引用了多个 policy id
	ErrCodeMixedPolicy ErrorCode = "MIXED_POLICY"
	// 同一输出（或找零）同时指定了 datum hash 与 inline datum
	ErrCodeConflictingDatum ErrorCode = "CONFLICTING_DATUM"
	// 脚本地址输出没有 datum，永远无法花费
	ErrCodeUnspendableOutput ErrorCode = "UNSPENDABLE_OUTPUT"
	// 脚本语言标签不在 Native / PlutusV1 / PlutusV2 之内
	ErrCodeUnknownScriptVariant ErrorCode = "UNKNOWN_SCRIPT_VARIANT"
	// 矿池元数据 URL 获取失败
	ErrCodeMetadataFetch ErrorCode = "METADATA_FETCH_FAILED"
	// 无法通过输入选择平衡交易
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	// hex / 二进制载荷无法解码
	ErrCodeMalformedEncoding ErrorCode = "MALFORMED_ENCODING"

	// 通用参数校验错误
	ErrCodeInvalidParams ErrorCode = "INVALID_PARAMS"
	// datum 查询返回 NotFound
	ErrCodeDatumNotFound ErrorCode = "DATUM_NOT_FOUND"
	// 钱包 / UTxO 提供方查询失败
	ErrCodeProvider ErrorCode = "PROVIDER_ERROR"
)

// TxError 交易构建统一错误类型
//
// Details 携带可直接定位问题的上下文（地址字符串、unit、冲突的 datum 字段等），
// 调用方无需检查 Builder 内部状态。
type TxError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *TxError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Details[k])
		}
		b.WriteString("]")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (cause=%v)", e.Cause)
	}
	return b.String()
}

func (e *TxError) Unwrap() error {
	return e.Cause
}

// Is 按错误码匹配，使 errors.Is(err, types.ErrInvalidAddress) 对任意同码错误成立
func (e *TxError) Is(target error) bool {
	t, ok := target.(*TxError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail 追加上下文字段并返回自身
func (e *TxError) WithDetail(key string, value interface{}) *TxError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// 哨兵错误，仅用于 errors.Is 比较
var (
	ErrInvalidAddress            = &TxError{Code: ErrCodeInvalidAddress}
	ErrUnsupportedCredentialType = &TxError{Code: ErrCodeUnsupportedCredentialType}
	ErrMixedPolicy               = &TxError{Code: ErrCodeMixedPolicy}
	ErrConflictingDatum          = &TxError{Code: ErrCodeConflictingDatum}
	ErrUnspendableOutput         = &TxError{Code: ErrCodeUnspendableOutput}
	ErrUnknownScriptVariant      = &TxError{Code: ErrCodeUnknownScriptVariant}
	ErrMetadataFetch             = &TxError{Code: ErrCodeMetadataFetch}
	ErrInsufficientFunds         = &TxError{Code: ErrCodeInsufficientFunds}
	ErrMalformedEncoding         = &TxError{Code: ErrCodeMalformedEncoding}
	ErrInvalidParams             = &TxError{Code: ErrCodeInvalidParams}
	ErrDatumNotFound             = &TxError{Code: ErrCodeDatumNotFound}
	ErrProvider                  = &TxError{Code: ErrCodeProvider}
)

// NewError 创建 TxError
func NewError(code ErrorCode, message string) *TxError {
	return &TxError{Code: code, Message: message}
}

// Errorf 创建带格式化消息的 TxError
func Errorf(code ErrorCode, format string, args ...interface{}) *TxError {
	return &TxError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError 包装底层错误；若 cause 已是 TxError 则原样返回，避免重复包装
func WrapError(code ErrorCode, message string, cause error) error {
	if cause == nil {
		return nil
	}
	var txErr *TxError
	if errors.As(cause, &txErr) {
		return cause
	}
	return &TxError{Code: code, Message: message, Cause: cause}
}

// CodeOf 提取错误码，非 TxError 返回空串
func CodeOf(err error) ErrorCode {
	var txErr *TxError
	if errors.As(err, &txErr) {
		return txErr.Code
	}
	return ""
}

// InvalidAddress 地址错误的快捷构造
func InvalidAddress(address string, reason string) *TxError {
	return Errorf(ErrCodeInvalidAddress, "%s", reason).WithDetail("address", address)
}

// MalformedEncoding 编码错误的快捷构造
func MalformedEncoding(what string, cause error) *TxError {
	return &TxError{
		Code:    ErrCodeMalformedEncoding,
		Message: fmt.Sprintf("cannot decode %s", what),
		Cause:   cause,
	}
}
