package omxil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	err := NewError("SendCommand", CodeBadParameter, "nSize mismatch")

	assert.Equal(t, "SendCommand", err.Op)
	assert.Equal(t, CodeBadParameter, err.Code)
	assert.Equal(t, "omxil: nSize mismatch (op=SendCommand)", err.Error())
}

func TestComponentAndPortError(t *testing.T) {
	err := NewPortError("EmptyThisBuffer", "OMX.MF.filter.copy", 0, CodeBadPortIndex, "no such port")

	require.Equal(t, "OMX.MF.filter.copy", err.Component)
	require.Equal(t, 0, err.Port)
	assert.Contains(t, err.Error(), "op=EmptyThisBuffer")
}

func TestWrapErrorPreservesCode(t *testing.T) {
	inner := NewError("pop_buffer", CodeInsufficientResources, "queue write failed")
	wrapped := WrapError("EmptyThisBuffer", inner)

	assert.Equal(t, CodeInsufficientResources, wrapped.Code)
	assert.True(t, errors.Is(wrapped, inner))
}

func TestWrapErrorOnPlainError(t *testing.T) {
	wrapped := WrapError("AllocateBuffer", fmt.Errorf("out of memory"))
	assert.Equal(t, CodeInsufficientResources, wrapped.Code)
	assert.Equal(t, "out of memory", wrapped.Msg)
}

func TestWrapErrorNil(t *testing.T) {
	assert.Nil(t, WrapError("op", nil))
}

func TestIsCode(t *testing.T) {
	err := NewError("GetState", CodeSameState, "already in requested state")

	assert.True(t, IsCode(err, CodeSameState))
	assert.False(t, IsCode(err, CodeBadParameter))
	assert.False(t, IsCode(nil, CodeSameState))
}

func TestErrorIsMatchesOnCodeAlone(t *testing.T) {
	a := NewError("SendCommand", CodeIncorrectStateTransition, "Idle -> Pause not allowed from here")
	b := &Error{Code: CodeIncorrectStateTransition}

	assert.True(t, errors.Is(a, b))

	c := &Error{Code: CodeBadParameter}
	assert.False(t, errors.Is(a, c))
}
