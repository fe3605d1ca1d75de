package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func testConfig() Config {
	return Config{
		ModelPath:   "rfdetr.onnx",
		InputName:   "input",
		LogitsName:  "labels",
		BoxesName:   "dets",
		InputWidth:  560,
		InputHeight: 560,
	}
}

func detrInfo(n, c int64) ([]ort.InputOutputInfo, []ort.InputOutputInfo) {
	inputs := []ort.InputOutputInfo{
		{Name: "input", Dimensions: ort.NewShape(1, 3, 560, 560)},
	}
	outputs := []ort.InputOutputInfo{
		{Name: "labels", Dimensions: ort.NewShape(1, n, c)},
		{Name: "dets", Dimensions: ort.NewShape(1, n, 4)},
	}
	return inputs, outputs
}

// TestValidateModelInfo validates that a well-formed DETR-style graph passes
// and yields its declared N and C.
func TestValidateModelInfo(t *testing.T) {
	inputs, outputs := detrInfo(300, 91)
	n, c, err := validateModelInfo(inputs, outputs, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 300, n)
	assert.Equal(t, 91, c)
}

// TestValidateModelInfoZeroClasses validates that a graph declaring a class
// count of 0 fails at load with ErrModelLoad, never as a downstream decode
// error.
func TestValidateModelInfoZeroClasses(t *testing.T) {
	inputs, outputs := detrInfo(300, 0)
	_, _, err := validateModelInfo(inputs, outputs, testConfig())
	assert.ErrorIs(t, err, ErrModelLoad)
}

// TestValidateModelInfoRejectsMismatches validates the fatal load-time
// contract checks.
func TestValidateModelInfoRejectsMismatches(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(inputs, outputs []ort.InputOutputInfo) ([]ort.InputOutputInfo, []ort.InputOutputInfo)
		message string
	}{
		{
			name: "wrong input resolution",
			mutate: func(in, out []ort.InputOutputInfo) ([]ort.InputOutputInfo, []ort.InputOutputInfo) {
				in[0].Dimensions = ort.NewShape(1, 3, 640, 640)
				return in, out
			},
			message: "a 640x640 graph must not load into a 560x560 session",
		},
		{
			name: "dynamic input dimension",
			mutate: func(in, out []ort.InputOutputInfo) ([]ort.InputOutputInfo, []ort.InputOutputInfo) {
				in[0].Dimensions = ort.NewShape(1, 3, -1, -1)
				return in, out
			},
			message: "dynamic input shapes are unsupported by the preallocated session",
		},
		{
			name: "missing boxes output",
			mutate: func(in, out []ort.InputOutputInfo) ([]ort.InputOutputInfo, []ort.InputOutputInfo) {
				return in, out[:1]
			},
			message: "a graph without the boxes output must be rejected",
		},
		{
			name: "candidate count disagreement",
			mutate: func(in, out []ort.InputOutputInfo) ([]ort.InputOutputInfo, []ort.InputOutputInfo) {
				out[1].Dimensions = ort.NewShape(1, 100, 4)
				return in, out
			},
			message: "logits and boxes must agree on N",
		},
		{
			name: "boxes without 4 parameters",
			mutate: func(in, out []ort.InputOutputInfo) ([]ort.InputOutputInfo, []ort.InputOutputInfo) {
				out[1].Dimensions = ort.NewShape(1, 300, 5)
				return in, out
			},
			message: "a non-4 box parameter count must be rejected",
		},
		{
			name: "logits not rank 3",
			mutate: func(in, out []ort.InputOutputInfo) ([]ort.InputOutputInfo, []ort.InputOutputInfo) {
				out[0].Dimensions = ort.NewShape(300, 91)
				return in, out
			},
			message: "a rank-2 logit output must be rejected",
		},
		{
			name: "wrong input name",
			mutate: func(in, out []ort.InputOutputInfo) ([]ort.InputOutputInfo, []ort.InputOutputInfo) {
				in[0].Name = "images"
				return in, out
			},
			message: "an unexpected input name must be rejected",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inputs, outputs := detrInfo(300, 91)
			inputs, outputs = tc.mutate(inputs, outputs)
			_, _, err := validateModelInfo(inputs, outputs, testConfig())
			assert.ErrorIs(t, err, ErrModelLoad, tc.message)
		})
	}
}

// TestValidateModelInfoUnnamedSingleTensors validates that a config without
// tensor names accepts a graph with exactly one input and matches outputs by
// name only when names are configured.
func TestValidateModelInfoUnnamedSingleTensors(t *testing.T) {
	cfg := testConfig()
	cfg.InputName = ""
	inputs, outputs := detrInfo(300, 91)
	inputs[0].Name = "whatever"

	n, c, err := validateModelInfo(inputs, outputs, cfg)
	require.NoError(t, err, "a single input should be accepted without a configured name")
	assert.Equal(t, 300, n)
	assert.Equal(t, 91, c)
}
