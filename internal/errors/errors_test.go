package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestError_Message(t *testing.T) {
	withDetail := &RequestError{Status: 409, Detail: "command is not waiting approval"}
	assert.Equal(t, "HTTP 409: command is not waiting approval", withDetail.Error())

	bare := &RequestError{Status: 502}
	assert.Equal(t, "HTTP 502", bare.Error())
}

func TestNetworkError_Unwraps(t *testing.T) {
	err := &NetworkError{Op: "GET /projects", Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, IsNetwork(err))
	assert.True(t, IsNetwork(fmt.Errorf("listing projects: %w", err)))
}

func TestValidationError_Unwraps(t *testing.T) {
	err := NewValidation(ErrEmptyCommandText)
	assert.ErrorIs(t, err, ErrEmptyCommandText)
	assert.True(t, IsValidation(err))
	assert.True(t, IsValidation(fmt.Errorf("submitting command: %w", err)))
	assert.False(t, IsValidation(io.ErrUnexpectedEOF))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 404, StatusOf(&RequestError{Status: 404}))
	assert.Equal(t, 404, StatusOf(fmt.Errorf("wrapped: %w", &RequestError{Status: 404})))
	assert.Equal(t, 0, StatusOf(io.ErrUnexpectedEOF))
	assert.Equal(t, 0, StatusOf(nil))
}

func TestIsAuth(t *testing.T) {
	assert.True(t, IsAuth(&RequestError{Status: 401}))
	assert.True(t, IsAuth(&RequestError{Status: 403}))
	assert.False(t, IsAuth(&RequestError{Status: 409}))
	assert.False(t, IsAuth(&NetworkError{Op: "GET", Err: io.EOF}))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&NetworkError{Op: "GET", Err: io.EOF}))
	assert.True(t, IsRetryable(&RequestError{Status: 429}))
	assert.True(t, IsRetryable(&RequestError{Status: 503}))
	assert.False(t, IsRetryable(&RequestError{Status: 404}))
	assert.False(t, IsRetryable(&RequestError{Status: 401}))
	assert.False(t, IsRetryable(NewValidation(ErrNoTaskSelected)))
}
