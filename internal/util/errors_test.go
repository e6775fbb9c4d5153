package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	err := NewParseError("versionA", "unexpected end of input")

	assert.Equal(t, "parse error in versionA: unexpected end of input", err.Error())
	assert.ErrorIs(t, err, ErrParse)
	assert.NotErrorIs(t, err, ErrCompute)
}

func TestTransformError(t *testing.T) {
	cause := errors.New("missing closing ]")
	err := NewTransformErrorWithCause("rule-7", "invalid pattern", cause)

	assert.Equal(t, "rule rule-7 invalid: invalid pattern", err.Error())
	assert.ErrorIs(t, err, ErrTransform)
	assert.ErrorIs(t, err, cause)
}

func TestComputeError(t *testing.T) {
	cause := errors.New("stack overflow")
	err := NewComputeErrorWithCause("delta", "recursion too deep", cause)

	assert.Equal(t, "compute error at delta: recursion too deep: stack overflow", err.Error())
	assert.ErrorIs(t, err, ErrCompute)
	assert.ErrorIs(t, err, cause)

	bare := NewComputeError("tree", "boom")
	assert.Equal(t, "compute error at tree: boom", bare.Error())
	assert.Nil(t, errors.Unwrap(bare))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(NewParseError("a", "bad")))
	assert.True(t, IsRecoverable(NewTransformError("r", "bad")))
	assert.True(t, IsRecoverable(ErrInvalidInput))
	assert.False(t, IsRecoverable(NewComputeError("delta", "bad")))
	assert.False(t, IsRecoverable(ErrCancelled))
	assert.False(t, IsRecoverable(nil))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "context"))

	wrapped := WrapError(ErrNotFound, "loading job")
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, "loading job: not found", wrapped.Error())
}
