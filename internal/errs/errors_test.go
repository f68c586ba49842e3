package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncError_Error(t *testing.T) {
	err := NotFound("orders", "O1")
	assert.Contains(t, err.Error(), "orders")
	assert.Contains(t, err.Error(), "O1")

	wrapped := Network("remote store unreachable", errors.New("dial tcp: refused"))
	assert.Contains(t, wrapped.Error(), "dial tcp: refused")
}

func TestSyncError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := Parse("orders", inner)
	assert.ErrorIs(t, err, inner)
}

func TestCodeHelpers(t *testing.T) {
	assert.True(t, IsNetwork(Network("down", nil)))
	assert.True(t, IsNotFound(NotFound("orders", "O1")))
	assert.True(t, IsParse(Parse("orders", errors.New("bad json"))))
	assert.True(t, IsConflictAmbiguity(ConflictAmbiguity("orders", "O1")))

	assert.False(t, IsNetwork(NotFound("orders", "O1")))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNetwork(errors.New("plain")))

	// Codes survive wrapping.
	wrapped := fmt.Errorf("load: %w", Network("down", nil))
	assert.True(t, IsNetwork(wrapped))
}
