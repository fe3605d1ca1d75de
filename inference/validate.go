package inference

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// validateModelInfo checks the graph's declared tensor metadata against the
// session's fixed contract and derives N and C from the output shapes.
//
// The candidate slot count N and class count C are fixed by the graph; they
// must agree between the logits and boxes outputs, and the decoder relies on
// them downstream. Any disagreement is fatal here rather than a recoverable
// decoding problem.
func validateModelInfo(inputs, outputs []ort.InputOutputInfo, cfg Config) (int, int, error) {
	input, err := findInfo(inputs, cfg.InputName)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrModelLoad, "input %q: %s", cfg.InputName, err)
	}
	wantInput := []int64{1, 3, int64(cfg.InputHeight), int64(cfg.InputWidth)}
	if !shapeMatches(input.Dimensions, wantInput) {
		return 0, 0, errors.Wrapf(ErrModelLoad,
			"input %q declares shape %v, pipeline expects %v",
			cfg.InputName, []int64(input.Dimensions), wantInput)
	}

	logits, err := findInfo(outputs, cfg.LogitsName)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrModelLoad, "output %q: %s", cfg.LogitsName, err)
	}
	if len(logits.Dimensions) != 3 || logits.Dimensions[0] != 1 {
		return 0, 0, errors.Wrapf(ErrModelLoad,
			"output %q declares shape %v, pipeline expects [1, N, C]",
			cfg.LogitsName, []int64(logits.Dimensions))
	}
	numCandidates := logits.Dimensions[1]
	numClasses := logits.Dimensions[2]
	if numCandidates < 1 {
		return 0, 0, errors.Wrapf(ErrModelLoad,
			"output %q declares %d candidate slots", cfg.LogitsName, numCandidates)
	}
	if numClasses < 1 {
		return 0, 0, errors.Wrapf(ErrModelLoad,
			"output %q declares %d classes", cfg.LogitsName, numClasses)
	}

	boxes, err := findInfo(outputs, cfg.BoxesName)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrModelLoad, "output %q: %s", cfg.BoxesName, err)
	}
	wantBoxes := []int64{1, numCandidates, 4}
	if !shapeMatches(boxes.Dimensions, wantBoxes) {
		return 0, 0, errors.Wrapf(ErrModelLoad,
			"output %q declares shape %v, pipeline expects %v",
			cfg.BoxesName, []int64(boxes.Dimensions), wantBoxes)
	}

	return int(numCandidates), int(numClasses), nil
}

// findInfo locates a tensor by name. With a single tensor and no configured
// name the tensor is accepted as-is.
func findInfo(infos []ort.InputOutputInfo, name string) (*ort.InputOutputInfo, error) {
	if name == "" && len(infos) == 1 {
		return &infos[0], nil
	}
	for i := range infos {
		if infos[i].Name == name {
			return &infos[i], nil
		}
	}
	return nil, errors.Errorf("not found among %d declared tensors", len(infos))
}

// shapeMatches compares a declared shape against an expected one. Dynamic
// dimensions (declared as -1) are rejected: the session preallocates
// fixed-shape tensors and cannot serve a dynamic graph.
func shapeMatches(got ort.Shape, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
