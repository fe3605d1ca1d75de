package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseBackend validates the backend name parsing used by the CLI.
func TestParseBackend(t *testing.T) {
	for _, b := range Backends {
		parsed, err := ParseBackend(string(b))
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}

	_, err := ParseBackend("tpu")
	assert.Error(t, err, "unknown providers must be rejected")
}

// TestGetSharedLibPathOverride validates the environment override.
func TestGetSharedLibPathOverride(t *testing.T) {
	t.Setenv("ONNXRUNTIME_SHARED_LIBRARY_PATH", "/opt/ort/libonnxruntime.so")
	assert.Equal(t, "/opt/ort/libonnxruntime.so", GetSharedLibPath())
}

// TestGetSharedLibPathDefault validates that a platform default is returned
// when no override is set.
func TestGetSharedLibPathDefault(t *testing.T) {
	t.Setenv("ONNXRUNTIME_SHARED_LIBRARY_PATH", "")
	assert.NotEmpty(t, GetSharedLibPath())
}
