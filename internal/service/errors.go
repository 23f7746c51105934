package service

import (
	"errors"
	"fmt"
)

// ErrorKind 工作流错误分类，调用方据此判断重试语义：
// Conflict/Unavailable 可刷新后重试，Validation/LimitExceeded 需修改输入，
// Terminal 不存在有意义的重试
type ErrorKind int

const (
	KindValidation    ErrorKind = iota // 输入不合法，未发生任何状态变更
	KindLimitExceeded                  // 超出技术员限额
	KindConflict                       // 并发冲突（决定已被处理/重复安装）
	KindUnavailable                    // 资源不可用（库存不足/预留已过期）
	KindTerminal                       // 对终态申请执行了不允许的操作
	KindNotFound                       // 目标实体不存在
)

// Error 工作流业务错误
type Error struct {
	Kind    ErrorKind
	Code    string // 机器可读编码: LIMIT_EXCEEDED / CONFLICT / STOCK_UNAVAILABLE / RESERVATION_EXPIRED / ...
	Message string
	Err     error // 可选的底层原因
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable 刷新状态后重试是否有意义
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict || e.Kind == KindUnavailable
}

// IsKind 判断err是否为指定分类的工作流错误
func IsKind(err error, kind ErrorKind) bool {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind == kind
	}
	return false
}

func validationErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION", Message: fmt.Sprintf(format, args...)}
}

func notFoundErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf(format, args...)}
}

func conflictErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: "CONFLICT", Message: fmt.Sprintf(format, args...)}
}

func terminalErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindTerminal, Code: "INVALID_TRANSITION", Message: fmt.Sprintf(format, args...)}
}

func limitExceededErr(scope string, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindLimitExceeded,
		Code:    "LIMIT_EXCEEDED",
		Message: fmt.Sprintf("[scope=%s] %s", scope, fmt.Sprintf(format, args...)),
	}
}

func stockUnavailableErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnavailable, Code: "STOCK_UNAVAILABLE", Message: fmt.Sprintf(format, args...)}
}

func reservationExpiredErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnavailable, Code: "RESERVATION_EXPIRED", Message: fmt.Sprintf(format, args...)}
}
