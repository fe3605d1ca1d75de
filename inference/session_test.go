package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSessionCloseIdempotent validates that teardown is safe to call on an
// already-released (or never-loaded) session, and that a clean teardown
// never reports an execution-taxonomy error.
func TestSessionCloseIdempotent(t *testing.T) {
	s := &Session{}
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close(), "repeated teardown must stay clean")

	err := s.Close()
	assert.NotErrorIs(t, err, ErrInference,
		"teardown must never surface as an inference failure")
}
