package omxil

import "github.com/go-omxil/omxilcore/internal/omxerr"

// Code is the OMX_ERRORTYPE taxonomy from the OpenMAX IL specification,
// mapped one-to-one onto a Go error category. Defined in internal/omxerr
// so the internal component/port/registry packages can construct the
// same error type without importing this package back.
type Code = omxerr.Code

const (
	CodeOK                       = omxerr.CodeOK
	CodeBadParameter             = omxerr.CodeBadParameter
	CodeVersionMismatch          = omxerr.CodeVersionMismatch
	CodeBadPortIndex             = omxerr.CodeBadPortIndex
	CodeInvalidState             = omxerr.CodeInvalidState
	CodeIncorrectStateTransition = omxerr.CodeIncorrectStateTransition
	CodeIncorrectStateOperation  = omxerr.CodeIncorrectStateOperation
	CodeSameState                = omxerr.CodeSameState
	CodeInsufficientResources    = omxerr.CodeInsufficientResources
	CodeUnsupportedIndex         = omxerr.CodeUnsupportedIndex
	CodeUnsupportedSetting       = omxerr.CodeUnsupportedSetting
	CodeNoMore                   = omxerr.CodeNoMore
	CodeNotImplemented           = omxerr.CodeNotImplemented
)

// Error is a structured OMX error with enough context to log and to
// compare against with errors.Is.
type Error = omxerr.Error

// NewError builds a structured error with no port/component context.
func NewError(op string, code Code, msg string) *Error {
	return omxerr.NewError(op, code, msg)
}

// NewComponentError builds a structured error scoped to a component.
func NewComponentError(op, component string, code Code, msg string) *Error {
	return omxerr.NewComponentError(op, component, code, msg)
}

// NewPortError builds a structured error scoped to a component port.
func NewPortError(op, component string, port int, code Code, msg string) *Error {
	return omxerr.NewPortError(op, component, port, code, msg)
}

// WrapError attaches an operation name to an existing error without
// losing its code if it is already one of ours.
func WrapError(op string, inner error) *Error {
	return omxerr.WrapError(op, inner)
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code Code) bool {
	return omxerr.IsCode(err, code)
}
