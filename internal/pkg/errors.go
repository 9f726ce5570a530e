package pkg

import (
	"errors"
	"fmt"
)

// Code 错误分类
type Code string

const (
	CodeConstraint        Code = "CONSTRAINT_VIOLATION"
	CodeNotFound          Code = "NOT_FOUND"
	CodeUnavailable       Code = "STORE_UNAVAILABLE"
	CodeMalformed         Code = "MALFORMED_STORED_DATA"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
)

// Error 引擎操作统一返回的错误类型
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E 构造错误，err 可以为 nil
func E(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// Errorf 带格式化原因的 E
func Errorf(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// CodeOf 取错误链上第一个 *Error 的分类，没有则返回空
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsNotFound(err error) bool    { return CodeOf(err) == CodeNotFound }
func IsConstraint(err error) bool  { return CodeOf(err) == CodeConstraint }
func IsUnavailable(err error) bool { return CodeOf(err) == CodeUnavailable }
func IsMalformed(err error) bool   { return CodeOf(err) == CodeMalformed }

// IsInvalid 参数错误或非法状态流转
func IsInvalid(err error) bool {
	c := CodeOf(err)
	return c == CodeInvalidArgument || c == CodeInvalidTransition
}

// Retryable 只有存储暂时不可用才值得重试
func Retryable(err error) bool { return IsUnavailable(err) }
