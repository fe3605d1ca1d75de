// Package postprocess - decodes raw RF-DETR outputs into image-space detections.
//
// The decoder owns the postprocessing numeric contract: per-class sigmoid
// scoring, the center-size box encoding normalized to the model input, and
// the inverse scale transform back into original-image pixels. RF-DETR's
// candidate set is de-duplicated by its training objective, so no IoU
// suppression runs by default; reintroducing it is a deliberate policy choice
// behind Options.NMS.
package postprocess

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/olibartfast/rfdetr-inference/images"
	"github.com/olibartfast/rfdetr-inference/inference"
	"github.com/olibartfast/rfdetr-inference/preprocess"
)

// ErrDecode reports raw outputs whose shapes violate the expected
// [1,N,C] / [1,N,4] contract.
var ErrDecode = errors.New("decode failed")

// Detection is a single decoded object, immutable once created.
type Detection struct {
	// Slot is the candidate slot index the detection came from.
	Slot int `json:"slot" yaml:"slot"`
	// ClassID is the predicted class index.
	ClassID int `json:"class_id" yaml:"class_id"`
	// Label is the class name, empty when no label set covers ClassID.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Confidence is the sigmoid class score in [0, 1].
	Confidence float32 `json:"confidence" yaml:"confidence"`
	// Box is the bounding box in original-image pixel coordinates.
	Box images.Box `json:"box" yaml:"box"`
}

// Options controls decoding policy.
type Options struct {
	// ConfidenceThreshold is the minimum class score required to keep a
	// candidate slot.
	ConfidenceThreshold float32
	// Labels maps class indices to names; optional.
	Labels []string
	// SortByConfidence re-sorts descending by confidence, ties broken by
	// ascending slot index. When false the model's slot order is preserved.
	SortByConfidence bool
	// NMS enables greedy IoU suppression when non-nil. Off by default; see
	// the package comment.
	NMS *NMSConfig
}

// Decode interprets one inference call's raw outputs into detections.
//
// For each of the N candidate slots the class with the maximum sigmoid score
// is selected; slots below the confidence threshold are dropped. Surviving
// boxes are decoded from normalized center-size form into model-input pixels,
// mapped through the inverse scale transform, and clamped to the original
// image bounds. Slot order is preserved unless sorting is requested.
//
// Arguments:
//   - raw: The raw model outputs for one image.
//   - st: The scale transform returned by the codec for the same image.
//   - opts: Decoding options.
//
// Returns:
//   - []Detection: The surviving detections in original-image pixel space.
//   - error: ErrDecode (wrapped) if the output buffers do not match the
//     declared [1,N,C] / [1,N,4] shapes. Mismatches are never truncated.
func Decode(raw *inference.RawOutputs, st preprocess.ScaleTransform, opts Options) ([]Detection, error) {
	if raw == nil {
		return nil, errors.Wrap(ErrDecode, "nil raw outputs")
	}
	n := raw.NumCandidates
	c := raw.NumClasses
	if n < 1 || c < 1 {
		return nil, errors.Wrapf(ErrDecode, "degenerate output contract N=%d C=%d", n, c)
	}
	if len(raw.Logits) != n*c {
		return nil, errors.Wrapf(ErrDecode,
			"logit tensor holds %d floats, contract [1,%d,%d] needs %d",
			len(raw.Logits), n, c, n*c)
	}
	if len(raw.Boxes) != n*4 {
		return nil, errors.Wrapf(ErrDecode,
			"box tensor holds %d floats, contract [1,%d,4] needs %d",
			len(raw.Boxes), n, n*4)
	}

	modelW := float32(st.ModelWidth)
	modelH := float32(st.ModelHeight)

	detections := make([]Detection, 0, n)
	for slot := 0; slot < n; slot++ {
		maxLogit := raw.Logits[slot*c]
		classID := 0
		for class := 1; class < c; class++ {
			if logit := raw.Logits[slot*c+class]; logit > maxLogit {
				maxLogit = logit
				classID = class
			}
		}

		confidence := sigmoid(maxLogit)
		if confidence < opts.ConfidenceThreshold {
			continue
		}

		// Box parameters are (cx, cy, w, h) normalized to [0,1] relative to
		// the model input.
		boxIdx := slot * 4
		cx := raw.Boxes[boxIdx] * modelW
		cy := raw.Boxes[boxIdx+1] * modelH
		w := raw.Boxes[boxIdx+2] * modelW
		h := raw.Boxes[boxIdx+3] * modelH

		box := st.ClampToOriginal(images.Box{
			X1: cx - w/2,
			Y1: cy - h/2,
			X2: cx + w/2,
			Y2: cy + h/2,
		})

		detections = append(detections, Detection{
			Slot:       slot,
			ClassID:    classID,
			Label:      labelFor(opts.Labels, classID),
			Confidence: confidence,
			Box:        box,
		})
	}

	if opts.NMS != nil {
		detections = applyGreedyNMS(detections, opts.NMS)
	}

	if opts.SortByConfidence {
		sort.SliceStable(detections, func(i, j int) bool {
			if detections[i].Confidence != detections[j].Confidence {
				return detections[i].Confidence > detections[j].Confidence
			}
			return detections[i].Slot < detections[j].Slot
		})
	} else if opts.NMS != nil {
		// NMS visits candidates in confidence order; restore slot order
		// after. Without NMS the slice is already in slot order.
		sort.SliceStable(detections, func(i, j int) bool {
			return detections[i].Slot < detections[j].Slot
		})
	}

	return detections, nil
}

func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + math32.Exp(-x))
}

func labelFor(labels []string, classID int) string {
	if classID >= 0 && classID < len(labels) {
		return labels[classID]
	}
	return ""
}
