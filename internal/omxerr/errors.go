// Package omxerr is the structured error type shared by every internal
// package and the root omxil package (which re-exports it under its
// own name so client code never imports this path directly). It lives
// here, rather than in the root package, so internal/port,
// internal/component and friends can construct errors without an
// import cycle back through the root package that imports them.
package omxerr

import (
	"errors"
	"fmt"
)

// Code is the OMX_ERRORTYPE taxonomy from the OpenMAX IL specification,
// mapped one-to-one onto a Go error category.
type Code string

const (
	// CodeOK is not a failure; it is never wrapped in an *Error. It
	// exists so callers can compare a nil error's notional code.
	CodeOK Code = ""

	CodeBadParameter             Code = "bad parameter"
	CodeVersionMismatch          Code = "version mismatch"
	CodeBadPortIndex             Code = "bad port index"
	CodeInvalidState             Code = "invalid state"
	CodeIncorrectStateTransition Code = "incorrect state transition"
	CodeIncorrectStateOperation  Code = "incorrect state operation"
	CodeSameState                Code = "same state"
	CodeInsufficientResources    Code = "insufficient resources"
	CodeUnsupportedIndex         Code = "unsupported index"
	CodeUnsupportedSetting       Code = "unsupported setting"
	CodeNoMore                   Code = "no more"
	CodeNotImplemented           Code = "not implemented"
)

// Error is a structured OMX error with enough context to log and to
// compare against with errors.Is.
type Error struct {
	Op        string // operation that failed, e.g. "SendCommand", "EmptyThisBuffer"
	Component string // component name, empty if not applicable
	Port      int    // port index, -1 if not applicable
	Code      Code
	Msg       string
	Inner     error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("component=%s", e.Component))
	}
	if e.Port >= 0 {
		parts = append(parts, fmt.Sprintf("port=%d", e.Port))
	}
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if len(parts) > 0 {
		return fmt.Sprintf("omxil: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("omxil: %s", msg)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is lets errors.Is match on Code alone, the same way client code
// compares against OMX_ERRORTYPE constants.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError builds a structured error with no port/component context.
func NewError(op string, code Code, msg string) *Error {
	return &Error{Op: op, Port: -1, Code: code, Msg: msg}
}

// NewComponentError builds a structured error scoped to a component.
func NewComponentError(op, component string, code Code, msg string) *Error {
	return &Error{Op: op, Component: component, Port: -1, Code: code, Msg: msg}
}

// NewPortError builds a structured error scoped to a component port.
func NewPortError(op, component string, port int, code Code, msg string) *Error {
	return &Error{Op: op, Component: component, Port: port, Code: code, Msg: msg}
}

// WrapError attaches an operation name to an existing error without
// losing its code if it is already one of ours.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	var oe *Error
	if errors.As(inner, &oe) {
		return &Error{
			Op:        op,
			Component: oe.Component,
			Port:      oe.Port,
			Code:      oe.Code,
			Msg:       oe.Msg,
			Inner:     oe.Inner,
		}
	}
	return &Error{Op: op, Port: -1, Code: CodeInsufficientResources, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code Code) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}
