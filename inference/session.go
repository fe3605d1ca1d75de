// Package inference - ONNX Runtime session ownership and execution.
//
// The session is an expensive resource acquired once and reused across many
// Infer calls. It is exclusively owned by one pipeline instance and released
// deterministically via Close.
package inference

import (
	"os"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/olibartfast/rfdetr-inference/inference/providers"
)

var (
	// ErrModelLoad reports a model graph that is missing, malformed, or
	// declares shapes incompatible with the pipeline's fixed expectations.
	ErrModelLoad = errors.New("model load failed")
	// ErrInference reports an engine-level execution failure.
	ErrInference = errors.New("inference failed")
)

// Config declares the fixed tensor contract the session validates at load
// time: one [1,3,H,W] float input and the [1,N,C] logits / [1,N,4] boxes
// output pair of a DETR-family detector.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// InputName is the graph's image input tensor name.
	InputName string `json:"input_name" yaml:"input_name"`
	// LogitsName is the graph's class-logit output tensor name.
	LogitsName string `json:"logits_name" yaml:"logits_name"`
	// BoxesName is the graph's box-parameter output tensor name.
	BoxesName string `json:"boxes_name" yaml:"boxes_name"`
	// InputWidth is the expected model input width.
	InputWidth int `json:"input_width" yaml:"input_width"`
	// InputHeight is the expected model input height.
	InputHeight int `json:"input_height" yaml:"input_height"`
	// Provider selects the execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`
}

// RawOutputs holds one forward pass worth of raw model outputs. The slices
// are snapshots owned by the caller; their lifetime is scoped to one
// inference call's results.
type RawOutputs struct {
	// Logits is the flattened [1, N, C] class-logit tensor.
	Logits []float32
	// Boxes is the flattened [1, N, 4] box-parameter tensor.
	Boxes []float32
	// NumCandidates is N, the fixed number of candidate slots.
	NumCandidates int
	// NumClasses is C, the fixed class count.
	NumClasses int
}

// Session wraps an ONNX Runtime session with preallocated input and output
// tensors bound for zero-copy exchange.
type Session struct {
	session       *ort.AdvancedSession
	input         *ort.Tensor[float32]
	logits        *ort.Tensor[float32]
	boxes         *ort.Tensor[float32]
	numCandidates int
	numClasses    int
}

// NewSession loads and validates an ONNX model graph.
//
// Order of operations:
//  1. Shared library check: ensures the native runtime is accessible.
//  2. Environment setup: prepares ONNX Runtime internals (once per process).
//  3. Graph metadata validation: the declared input/output shapes must match
//     the fixed [1,3,H,W] -> [1,N,C] + [1,N,4] contract. A mismatch is a
//     fatal configuration error surfaced here, never deferred to decoding.
//  4. Tensor allocation: fixed-shape buffers for input and output data.
//  5. Session options and execution providers.
//  6. Session creation: loads weights and binds tensors.
//
// Arguments:
//   - cfg: The session configuration.
//
// Returns:
//   - *Session: The loaded session, ready for Infer calls.
//   - error: ErrModelLoad (wrapped) on any load or validation failure.
func NewSession(cfg Config) (*Session, error) {
	libPath := providers.GetSharedLibPath()
	if _, err := os.Stat(libPath); os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrModelLoad,
			"ONNX Runtime library not found at %s (set ONNXRUNTIME_SHARED_LIBRARY_PATH)", libPath)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "model file %s: %s", cfg.ModelPath, err)
	}

	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrapf(ErrModelLoad, "initializing ORT environment: %s", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "reading graph metadata: %s", err)
	}
	numCandidates, numClasses, err := validateModelInfo(inputs, outputs, cfg)
	if err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](
		ort.NewShape(1, 3, int64(cfg.InputHeight), int64(cfg.InputWidth)))
	if err != nil {
		return nil, errors.Wrapf(ErrModelLoad, "creating input tensor: %s", err)
	}
	logitsTensor, err := ort.NewEmptyTensor[float32](
		ort.NewShape(1, int64(numCandidates), int64(numClasses)))
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrapf(ErrModelLoad, "creating logits tensor: %s", err)
	}
	boxesTensor, err := ort.NewEmptyTensor[float32](
		ort.NewShape(1, int64(numCandidates), 4))
	if err != nil {
		inputTensor.Destroy()
		logitsTensor.Destroy()
		return nil, errors.Wrapf(ErrModelLoad, "creating boxes tensor: %s", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		logitsTensor.Destroy()
		boxesTensor.Destroy()
		return nil, errors.Wrapf(ErrModelLoad, "creating ORT session options: %s", err)
	}
	defer options.Destroy()

	options.SetIntraOpNumThreads(0)
	options.SetInterOpNumThreads(0)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	if err := cfg.Provider.Apply(options); err != nil {
		inputTensor.Destroy()
		logitsTensor.Destroy()
		boxesTensor.Destroy()
		return nil, errors.Wrap(ErrModelLoad, err.Error())
	}

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.LogitsName, cfg.BoxesName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{logitsTensor, boxesTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		logitsTensor.Destroy()
		boxesTensor.Destroy()
		return nil, errors.Wrapf(ErrModelLoad, "creating ORT session: %s", err)
	}

	return &Session{
		session:       session,
		input:         inputTensor,
		logits:        logitsTensor,
		boxes:         boxesTensor,
		numCandidates: numCandidates,
		numClasses:    numClasses,
	}, nil
}

// NumCandidates returns N, the fixed number of candidate slots the model
// always emits.
func (s *Session) NumCandidates() int {
	return s.numCandidates
}

// NumClasses returns C, the fixed class count of the model's logit output.
func (s *Session) NumClasses() int {
	return s.numClasses
}

// Infer runs one synchronous forward pass. No state other than the loaded
// weights carries between calls.
//
// Arguments:
//   - pixels: The normalized CHW input tensor data, exactly 3*H*W floats.
//
// Returns:
//   - *RawOutputs: Snapshots of the logit and box output tensors.
//   - error: ErrInference (wrapped) on a runtime shape mismatch or engine
//     failure.
func (s *Session) Infer(pixels []float32) (*RawOutputs, error) {
	data := s.input.GetData()
	if len(pixels) != len(data) {
		return nil, errors.Wrapf(ErrInference,
			"input tensor holds %d floats, got %d", len(data), len(pixels))
	}
	copy(data, pixels)

	if err := s.session.Run(); err != nil {
		return nil, errors.Wrapf(ErrInference, "running ORT session: %s", err)
	}

	// Snapshot the outputs so the returned buffers stay valid after the
	// preallocated tensors are overwritten by the next call.
	logits := make([]float32, len(s.logits.GetData()))
	copy(logits, s.logits.GetData())
	boxes := make([]float32, len(s.boxes.GetData()))
	copy(boxes, s.boxes.GetData())

	return &RawOutputs{
		Logits:        logits,
		Boxes:         boxes,
		NumCandidates: s.numCandidates,
		NumClasses:    s.numClasses,
	}, nil
}

// Close releases the tensors and the native session. It is safe to call more
// than once.
//
// Returns:
//   - error: An error if destroying the native session fails.
func (s *Session) Close() error {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.logits != nil {
		s.logits.Destroy()
		s.logits = nil
	}
	if s.boxes != nil {
		s.boxes.Destroy()
		s.boxes = nil
	}
	if s.session != nil {
		err := s.session.Destroy()
		s.session = nil
		if err != nil {
			return errors.Wrap(err, "destroying ORT session")
		}
	}
	return nil
}
