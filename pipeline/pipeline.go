// Package pipeline - composes preprocessing, inference, and decoding into one
// call surface.
package pipeline

import (
	"image"

	"github.com/olibartfast/rfdetr-inference/inference"
	"github.com/olibartfast/rfdetr-inference/postprocess"
	"github.com/olibartfast/rfdetr-inference/preprocess"
)

// Engine is the opaque "run inference" capability the pipeline composes.
// *inference.Session satisfies it; tests substitute fakes.
type Engine interface {
	Infer(pixels []float32) (*inference.RawOutputs, error)
	Close() error
}

// Options controls decoding policy for every Run call.
type Options struct {
	// Labels maps class indices to names; optional.
	Labels []string
	// SortByConfidence re-sorts results descending by confidence.
	SortByConfidence bool
	// NMS enables greedy IoU suppression when non-nil. RF-DETR needs none;
	// see the postprocess package comment.
	NMS *postprocess.NMSConfig
}

// Pipeline runs image-in, detections-out inference. One Run call fully
// completes before returning; a Pipeline instance must not be shared across
// goroutines. For concurrent throughput give each caller its own Pipeline
// with its own session.
type Pipeline struct {
	engine Engine
	codec  *preprocess.Preprocessor
	opts   Options
	buf    []float32
}

// New creates a pipeline around an engine and a codec. The pipeline takes
// exclusive ownership of the engine for its lifetime.
//
// Arguments:
//   - engine: The loaded inference engine.
//   - codec: The preprocessor matching the engine's input contract.
//   - opts: Decoding options applied to every Run call.
//
// Returns:
//   - *Pipeline: The composed pipeline.
func New(engine Engine, codec *preprocess.Preprocessor, opts Options) *Pipeline {
	return &Pipeline{
		engine: engine,
		codec:  codec,
		opts:   opts,
		buf:    make([]float32, codec.TensorSize()),
	}
}

// Run executes one full preprocess -> infer -> decode pass.
//
// All failures are surfaced immediately with no internal retry: retrying a
// deterministic computation with identical inputs cannot change the outcome.
// No partial results are returned on failure.
//
// Arguments:
//   - img: The decoded input image, read-only to the pipeline.
//   - confidenceThreshold: The minimum class score to keep a candidate.
//
// Returns:
//   - []postprocess.Detection: Detections in original-image pixel space,
//     in the model's slot order unless Options.SortByConfidence is set.
//   - error: images.ErrInvalidImage, inference.ErrInference, or
//     postprocess.ErrDecode (wrapped), depending on the failing stage.
func (p *Pipeline) Run(img image.Image, confidenceThreshold float32) ([]postprocess.Detection, error) {
	st, err := p.codec.Encode(img, p.buf)
	if err != nil {
		return nil, err
	}

	raw, err := p.engine.Infer(p.buf)
	if err != nil {
		return nil, err
	}

	return postprocess.Decode(raw, st, postprocess.Options{
		ConfidenceThreshold: confidenceThreshold,
		Labels:              p.opts.Labels,
		SortByConfidence:    p.opts.SortByConfidence,
		NMS:                 p.opts.NMS,
	})
}

// Close releases the underlying engine. The pipeline must not be used after
// Close.
//
// Returns:
//   - error: An error if engine teardown fails.
func (p *Pipeline) Close() error {
	return p.engine.Close()
}
