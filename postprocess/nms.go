// Package postprocess - greedy Non-Maximum Suppression for detection results.
package postprocess

import (
	"sort"

	"github.com/olibartfast/rfdetr-inference/images"
)

// NMSConfig defines parameters for greedy Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap above which the lower-scoring box is
	// suppressed.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// ClassAware suppresses only within the same class when true.
	ClassAware bool `json:"class_aware" yaml:"class_aware"`
}

// applyGreedyNMS suppresses overlapping detections, keeping the
// highest-confidence box of each overlapping group.
//
// Candidates are visited in descending confidence order, ties broken by
// ascending slot index so the result is deterministic.
func applyGreedyNMS(detections []Detection, config *NMSConfig) []Detection {
	n := len(detections)
	if n == 0 {
		return detections
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := detections[order[a]], detections[order[b]]
		if da.Confidence != db.Confidence {
			return da.Confidence > db.Confidence
		}
		return da.Slot < db.Slot
	})

	used := make([]bool, n)
	filtered := make([]Detection, 0, n)

	for ai, i := range order {
		if used[i] {
			continue
		}
		anchor := detections[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for _, j := range order[ai+1:] {
			if used[j] {
				continue
			}
			if config.ClassAware && anchor.ClassID != detections[j].ClassID {
				continue
			}
			if images.CalculateIoU(anchor.Box, detections[j].Box) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}
