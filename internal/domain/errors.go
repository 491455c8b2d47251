package domain

import (
	"errors"
	"fmt"
)

// 错误分类；用 errors.Is(err, ErrXxx) 判断
var (
	ErrValidation     = errors.New("validation error")
	ErrDuplicateField = errors.New("duplicate field")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNotInList      = errors.New("not in list")
	ErrUpstream       = errors.New("upstream error")
	ErrInternal       = errors.New("internal error")
)

// 401 原因
const (
	ReasonMissingToken       = "missing_token"
	ReasonTokenExpired       = "token_expired"
	ReasonTokenInvalid       = "token_invalid"
	ReasonInvalidCredentials = "invalid_credentials"
)

type FieldViolation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type Error struct {
	Kind       error
	Msg        string
	Reason     string // 仅 Unauthorized
	Field      string // 仅 DuplicateField
	Violations []FieldViolation
	Err        error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Is(target error) bool { return target == e.Kind }
func (e *Error) Unwrap() error        { return e.Err }

func Validation(msg string, vs ...FieldViolation) error {
	return &Error{Kind: ErrValidation, Msg: msg, Violations: vs}
}

func DuplicateField(field, msg string) error {
	return &Error{Kind: ErrDuplicateField, Msg: msg, Field: field}
}

func Unauthorized(reason, msg string) error {
	return &Error{Kind: ErrUnauthorized, Msg: msg, Reason: reason}
}

func NotFound(msg string) error      { return &Error{Kind: ErrNotFound, Msg: msg} }
func AlreadyExists(msg string) error { return &Error{Kind: ErrAlreadyExists, Msg: msg} }
func NotInList(msg string) error     { return &Error{Kind: ErrNotInList, Msg: msg} }

func Upstream(msg string, err error) error {
	return &Error{Kind: ErrUpstream, Msg: msg, Err: err}
}

func Internal(msg string, err error) error {
	return &Error{Kind: ErrInternal, Msg: msg, Err: err}
}

// AsError 取出 *Error；非本包错误返回 nil
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
