// Package images - image processing utilities.
package images

// Box is a lightweight axis-aligned bounding box in pixel coordinates.
// X2,Y2 are exclusive (like image.Rectangle).
type Box struct {
	X1, Y1, X2, Y2 float32
}

// Width returns the width of the box.
func (b Box) Width() float32 {
	return b.X2 - b.X1
}

// Height returns the height of the box.
func (b Box) Height() float32 {
	return b.Y2 - b.Y1
}

// Area returns the area of the box, 0 for degenerate boxes.
func (b Box) Area() float32 {
	w := b.Width()
	h := b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Clamp restricts the box to the rectangle (0,0)-(width,height) while keeping
// x1 <= x2 and y1 <= y2.
//
// Arguments:
//   - width: The clamping rectangle width.
//   - height: The clamping rectangle height.
//
// Returns:
//   - Box: The clamped box.
func (b Box) Clamp(width, height float32) Box {
	c := Box{
		X1: clamp(b.X1, 0, width),
		Y1: clamp(b.Y1, 0, height),
		X2: clamp(b.X2, 0, width),
		Y2: clamp(b.Y2, 0, height),
	}
	if c.X2 < c.X1 {
		c.X1, c.X2 = c.X2, c.X1
	}
	if c.Y2 < c.Y1 {
		c.Y1, c.Y2 = c.Y2, c.Y1
	}
	return c
}

// CalculateIoU computes the Intersection over Union of two boxes.
//
// IoU = Area of Intersection / Area of Union, a value in [0, 1]. A value of
// 1.0 means the boxes are identical, 0.0 means they do not overlap at all.
// The intersection's top-left corner is the maximum of the two top-left
// corners and its bottom-right corner is the minimum of the two bottom-right
// corners; union follows from inclusion-exclusion.
//
// Arguments:
//   - r: The first box.
//   - o: The other box to compare against.
//
// Returns:
//   - float32: The IoU score in [0, 1].
func CalculateIoU(r, o Box) float32 {
	ix1 := maxf(r.X1, o.X1)
	iy1 := maxf(r.Y1, o.Y1)
	ix2 := minf(r.X2, o.X2)
	iy2 := minf(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}
	return interArea / unionArea
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
