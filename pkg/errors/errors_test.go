package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransportError("analyzer unreachable", cause)

	assert.Equal(t, "TRANSPORT: analyzer unreachable: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "PARSE: bad reply", NewParseError("bad reply", nil).Error())
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("process: %w", NewInputError("no text", nil))

	assert.True(t, IsType(wrapped, ErrorTypeInput))
	assert.False(t, IsType(wrapped, ErrorTypeParse))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeInput))
	assert.Equal(t, ErrorTypeInput, TypeOf(wrapped))
	assert.Equal(t, ErrorType(""), TypeOf(nil))
}
