package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCalculateIoU validates the IoU metric on known geometric cases.
func TestCalculateIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b Box
		want float32
	}{
		{
			name: "identical boxes",
			a:    Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			want: 1.0,
		},
		{
			name: "quarter overlap",
			a:    Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    Box{X1: 5, Y1: 5, X2: 15, Y2: 15},
			// intersection 25, union 100 + 100 - 25 = 175
			want: 25.0 / 175.0,
		},
		{
			name: "disjoint boxes",
			a:    Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    Box{X1: 20, Y1: 20, X2: 30, Y2: 30},
			want: 0.0,
		},
		{
			name: "touching edges",
			a:    Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    Box{X1: 10, Y1: 0, X2: 20, Y2: 10},
			want: 0.0,
		},
		{
			name: "contained box",
			a:    Box{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    Box{X1: 2, Y1: 2, X2: 4, Y2: 4},
			want: 4.0 / 100.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, CalculateIoU(tc.a, tc.b), 1e-6,
				"IoU should match the geometric expectation")
			assert.InDelta(t, tc.want, CalculateIoU(tc.b, tc.a), 1e-6,
				"IoU should be symmetric")
		})
	}
}

// TestBoxClamp validates that clamping keeps boxes ordered and inside the
// target rectangle.
func TestBoxClamp(t *testing.T) {
	clamped := Box{X1: -20, Y1: -5, X2: 700, Y2: 500}.Clamp(640, 480)
	assert.Equal(t, Box{X1: 0, Y1: 0, X2: 640, Y2: 480}, clamped,
		"overflowing box should clamp to the full frame")

	inside := Box{X1: 10, Y1: 20, X2: 30, Y2: 40}.Clamp(640, 480)
	assert.Equal(t, Box{X1: 10, Y1: 20, X2: 30, Y2: 40}, inside,
		"box already inside the frame should be unchanged")

	degenerate := Box{X1: -50, Y1: -50, X2: -10, Y2: -10}.Clamp(640, 480)
	assert.LessOrEqual(t, degenerate.X1, degenerate.X2, "x order must hold after clamping")
	assert.LessOrEqual(t, degenerate.Y1, degenerate.Y2, "y order must hold after clamping")
	assert.Zero(t, degenerate.Area(), "fully outside box should collapse to zero area")
}

// TestBoxDimensions validates the width, height, and area helpers.
func TestBoxDimensions(t *testing.T) {
	b := Box{X1: 10, Y1: 20, X2: 50, Y2: 80}
	assert.Equal(t, float32(40), b.Width())
	assert.Equal(t, float32(60), b.Height())
	assert.Equal(t, float32(2400), b.Area())

	assert.Zero(t, Box{X1: 5, Y1: 5, X2: 5, Y2: 50}.Area(),
		"degenerate box should have zero area")
}
