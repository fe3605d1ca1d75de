// Package providers - execution provider configuration for ONNX Runtime.
package providers

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	ort "github.com/yalue/onnxruntime_go"
)

// Backend represents an ONNX Runtime execution provider.
type Backend string

const (
	// CPUBackend uses the default CPU execution provider.
	CPUBackend Backend = "cpu"
	// CUDABackend uses NVIDIA CUDA for GPU acceleration.
	CUDABackend Backend = "cuda"
	// CoreMLBackend uses Apple CoreML for macOS acceleration.
	CoreMLBackend Backend = "coreml"
	// OpenVINOBackend uses Intel OpenVINO for inference optimization.
	OpenVINOBackend Backend = "openvino"
)

// Backends is the list of all supported execution providers.
var Backends = []Backend{CPUBackend, CUDABackend, CoreMLBackend, OpenVINOBackend}

// Config selects an execution provider and its device-level options. The
// zero value selects the CPU provider.
type Config struct {
	// Backend specifies the execution provider to use.
	Backend Backend `json:"backend" yaml:"backend"`
	// DeviceID selects the accelerator device for CUDA.
	DeviceID int `json:"device_id" yaml:"device_id"`
	// OpenVINODeviceType selects the OpenVINO target (e.g. "CPU", "GPU").
	OpenVINODeviceType string `json:"openvino_device_type" yaml:"openvino_device_type"`
}

// ParseBackend converts a string into a known Backend.
//
// Arguments:
//   - s: The backend name ("cpu", "cuda", "coreml", "openvino").
//
// Returns:
//   - Backend: The parsed backend.
//   - error: An error if the name is not a supported backend.
func ParseBackend(s string) (Backend, error) {
	for _, b := range Backends {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unsupported execution provider %q", s)
}

// Apply appends the configured execution provider to the session options.
//
// Execution providers let ONNX Runtime leverage specialized hardware. The CPU
// provider is always available and needs no appending.
//
// Arguments:
//   - options: The session options to configure.
//
// Returns:
//   - error: An error if the provider cannot be enabled.
func (c Config) Apply(options *ort.SessionOptions) error {
	switch c.Backend {
	case "", CPUBackend:
		return nil
	case CoreMLBackend:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return fmt.Errorf("error enabling CoreML: %w", err)
		}
	case CUDABackend:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fmt.Errorf("error creating CUDA provider options: %w", err)
		}
		defer cuda.Destroy()
		err = cuda.Update(map[string]string{
			"device_id": strconv.Itoa(c.DeviceID),
		})
		if err != nil {
			return fmt.Errorf("error updating CUDA provider options: %w", err)
		}
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return fmt.Errorf("error enabling CUDA: %w", err)
		}
	case OpenVINOBackend:
		deviceType := c.OpenVINODeviceType
		if deviceType == "" {
			deviceType = "CPU"
		}
		err := options.AppendExecutionProviderOpenVINO(map[string]string{
			"device_type": deviceType,
		})
		if err != nil {
			return fmt.Errorf("error enabling OpenVINO: %w", err)
		}
	default:
		return fmt.Errorf("unsupported execution provider %q", c.Backend)
	}
	return nil
}

// GetSharedLibPath returns the ONNX Runtime shared library path for the
// current platform. The ONNXRUNTIME_SHARED_LIBRARY_PATH environment variable
// overrides the platform default.
//
// Returns:
//   - string: The file path to the ONNX Runtime shared library.
func GetSharedLibPath() string {
	if path := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); path != "" {
		return path
	}
	if runtime.GOOS == "windows" {
		return "third_party/onnxruntime.dll"
	}
	if runtime.GOOS == "darwin" {
		if runtime.GOARCH == "arm64" {
			return "third_party/onnxruntime_arm64.dylib"
		}
		return "third_party/onnxruntime_amd64.dylib"
	}
	if runtime.GOARCH == "arm64" {
		return "third_party/onnxruntime_arm64.so"
	}
	return "third_party/onnxruntime.so"
}
