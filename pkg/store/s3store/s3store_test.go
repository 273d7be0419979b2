package s3store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_Key(t *testing.T) {
	s := &Store{prefix: "share"}
	assert.Equal(t, "share/a.txt", s.key("a.txt"))

	s2 := &Store{prefix: ""}
	assert.Equal(t, "a.txt", s2.key("a.txt"))
}

func TestCalculateBackoff_CapsAtMax(t *testing.T) {
	s := &Store{retry: defaultRetry}

	first := s.calculateBackoff(0)
	assert.Equal(t, defaultRetry.initialBackoff, first)

	large := s.calculateBackoff(20)
	assert.Equal(t, defaultRetry.maxBackoff, large)
}

func TestIsRetryableError_ContextErrorsAreNotRetryable(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(errors.New("random failure")))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(context.DeadlineExceeded))
}

func TestIsNotFoundError_NilIsFalse(t *testing.T) {
	assert.False(t, isNotFoundError(nil))
}

func TestIsInvalidRangeError_NilIsFalse(t *testing.T) {
	assert.False(t, isInvalidRangeError(nil))
}
