package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type codedError struct {
	code int
}

func (e *codedError) Error() string       { return fmt.Sprintf("coded %d", e.code) }
func (e *codedError) HTTPStatusCode() int { return e.code }

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusFor(nil))
	assert.Equal(t, http.StatusConflict, StatusFor(&codedError{code: http.StatusConflict}))
	assert.Equal(t, http.StatusConflict, StatusFor(fmt.Errorf("wrapped: %w", &codedError{code: http.StatusConflict})))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("plain")))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(errors.New("bad payload")))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(fmt.Errorf("publish: %w", timeoutError{})))
}

func TestJitterSleepBounds(t *testing.T) {
	assert.Zero(t, JitterSleep(0))
	assert.Zero(t, JitterSleep(-time.Second))

	base := time.Second
	for i := 0; i < 50; i++ {
		d := JitterSleep(base)
		assert.GreaterOrEqual(t, d, 800*time.Millisecond)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}
