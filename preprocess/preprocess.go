// Package preprocess - converts decoded images into model-ready input tensors.
//
// The codec owns the preprocessing numeric contract: resize interpolation,
// channel order, and per-channel normalization constants. These must match the
// model's training recipe exactly or accuracy silently degrades, so they are
// explicit configuration rather than hard-coded behavior.
package preprocess

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/olibartfast/rfdetr-inference/images"
)

// Config defines the preprocessing contract for a specific model.
type Config struct {
	// Name of the model for debugging purposes.
	Name string `json:"name" yaml:"name"`
	// InputWidth is the expected width of the model input.
	InputWidth int `json:"input_width" yaml:"input_width"`
	// InputHeight is the expected height of the model input.
	InputHeight int `json:"input_height" yaml:"input_height"`
	// Mean is the per-channel mean subtracted after scaling pixels to [0,1].
	Mean [3]float32 `json:"mean" yaml:"mean"`
	// Std is the per-channel standard deviation divided out after Mean.
	Std [3]float32 `json:"std" yaml:"std"`
	// SwapRB swaps the red and blue channels (for BGR-trained models).
	SwapRB bool `json:"swap_rb" yaml:"swap_rb"`
	// KeepAspectRatio maintains aspect ratio with letterbox padding. When
	// false the image is squashed to InputWidth x InputHeight, which is the
	// RF-DETR training-time policy.
	KeepAspectRatio bool `json:"keep_aspect_ratio" yaml:"keep_aspect_ratio"`
	// PadColor is the color used for letterbox padding (default black).
	PadColor color.Color `json:"-" yaml:"-"`
}

// ScaleTransform is the affine mapping from original-image pixel space into
// model-input pixel space: model = original*Scale + Pad. It is derived once
// per image and consumed by the detection decoder to invert the resize.
type ScaleTransform struct {
	// ScaleX is the horizontal scaling factor applied during resize.
	ScaleX float32 `json:"scale_x" yaml:"scale_x"`
	// ScaleY is the vertical scaling factor applied during resize.
	ScaleY float32 `json:"scale_y" yaml:"scale_y"`
	// PadX is the left letterbox padding in model-input pixels.
	PadX float32 `json:"pad_x" yaml:"pad_x"`
	// PadY is the top letterbox padding in model-input pixels.
	PadY float32 `json:"pad_y" yaml:"pad_y"`
	// ModelWidth is the model input width the transform maps into.
	ModelWidth int `json:"model_width" yaml:"model_width"`
	// ModelHeight is the model input height the transform maps into.
	ModelHeight int `json:"model_height" yaml:"model_height"`
	// OriginalWidth is the source image width.
	OriginalWidth int `json:"original_width" yaml:"original_width"`
	// OriginalHeight is the source image height.
	OriginalHeight int `json:"original_height" yaml:"original_height"`
}

// ToOriginal maps a point from model-input pixel space back into
// original-image pixel space.
//
// Arguments:
//   - x: The x coordinate in model-input pixels.
//   - y: The y coordinate in model-input pixels.
//
// Returns:
//   - float32: The x coordinate in original-image pixels.
//   - float32: The y coordinate in original-image pixels.
func (st ScaleTransform) ToOriginal(x, y float32) (float32, float32) {
	return (x - st.PadX) / st.ScaleX, (y - st.PadY) / st.ScaleY
}

// ClampToOriginal maps a model-input-space box back into original-image pixel
// space and clamps it to the original image bounds.
//
// Arguments:
//   - b: The box in model-input pixel coordinates.
//
// Returns:
//   - images.Box: The box in original-image pixel coordinates, clamped so
//     that 0 <= x1 <= x2 <= width and 0 <= y1 <= y2 <= height.
func (st ScaleTransform) ClampToOriginal(b images.Box) images.Box {
	x1, y1 := st.ToOriginal(b.X1, b.Y1)
	x2, y2 := st.ToOriginal(b.X2, b.Y2)
	return images.Box{X1: x1, Y1: y1, X2: x2, Y2: y2}.
		Clamp(float32(st.OriginalWidth), float32(st.OriginalHeight))
}

// Preprocessor encodes images into CHW float32 tensors for one model config.
type Preprocessor struct {
	config Config
}

// NewPreprocessor creates a new preprocessor with the given configuration.
//
// Arguments:
//   - config: The model-specific preprocessing configuration.
//
// Returns:
//   - *Preprocessor: A configured Preprocessor instance.
func NewPreprocessor(config Config) *Preprocessor {
	if config.PadColor == nil {
		config.PadColor = color.Black
	}
	return &Preprocessor{config: config}
}

// Config returns the preprocessing configuration.
func (p *Preprocessor) Config() Config {
	return p.config
}

// TensorSize returns the number of float32 elements of the input tensor,
// corresponding to the shape [1, 3, InputHeight, InputWidth].
func (p *Preprocessor) TensorSize() int {
	return 3 * p.config.InputHeight * p.config.InputWidth
}

// Encode resizes, reorders, and normalizes an image into dst, laid out as
// three contiguous channel planes (CHW).
//
// The resize uses Lanczos3 interpolation. This is part of the numeric
// contract with the exported model, not a style choice: the interpolation
// policy must match training-time preprocessing.
//
// Arguments:
//   - img: The decoded source image, read-only to the codec.
//   - dst: The destination tensor data, at least TensorSize() elements.
//
// Returns:
//   - ScaleTransform: The mapping needed to invert the resize later.
//   - error: images.ErrInvalidImage (wrapped) on a degenerate image or an
//     undersized destination slice.
func (p *Preprocessor) Encode(img image.Image, dst []float32) (ScaleTransform, error) {
	width := img.Bounds().Canon().Dx()
	height := img.Bounds().Canon().Dy()
	if width <= 0 || height <= 0 {
		return ScaleTransform{}, errors.Wrapf(images.ErrInvalidImage,
			"cannot encode %dx%d image", width, height)
	}

	targetW := p.config.InputWidth
	targetH := p.config.InputHeight
	channelSize := targetW * targetH
	if len(dst) < channelSize*3 {
		return ScaleTransform{}, errors.Wrapf(images.ErrInvalidImage,
			"destination tensor only holds %d floats, needs %d (make sure it's the right shape)",
			len(dst), channelSize*3)
	}

	st := ScaleTransform{
		ModelWidth:     targetW,
		ModelHeight:    targetH,
		OriginalWidth:  width,
		OriginalHeight: height,
	}

	var canvas image.Image
	if p.config.KeepAspectRatio {
		scale := minf(float32(targetW)/float32(width), float32(targetH)/float32(height))
		// Extreme aspect ratios can round a dimension to zero, which would
		// zero the scale factor and make the inverse transform divide by
		// zero. Keep at least one pixel of content.
		resizedW := maxi(int(float32(width)*scale+0.5), 1)
		resizedH := maxi(int(float32(height)*scale+0.5), 1)
		st.ScaleX = float32(resizedW) / float32(width)
		st.ScaleY = float32(resizedH) / float32(height)
		st.PadX = float32(targetW-resizedW) / 2
		st.PadY = float32(targetH-resizedH) / 2

		resized := resize.Resize(uint(resizedW), uint(resizedH), img, resize.Lanczos3)
		letterboxed := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
		draw.Draw(letterboxed, letterboxed.Bounds(), image.NewUniform(p.config.PadColor),
			image.Point{}, draw.Src)
		offset := image.Pt(int(st.PadX), int(st.PadY))
		draw.Draw(letterboxed, image.Rectangle{Min: offset, Max: offset.Add(resized.Bounds().Size())},
			resized, image.Point{}, draw.Src)
		canvas = letterboxed
	} else {
		st.ScaleX = float32(targetW) / float32(width)
		st.ScaleY = float32(targetH) / float32(height)
		canvas = resize.Resize(uint(targetW), uint(targetH), img, resize.Lanczos3)
	}

	ch0 := dst[0:channelSize]
	ch1 := dst[channelSize : channelSize*2]
	ch2 := dst[channelSize*2 : channelSize*3]
	if p.config.SwapRB {
		ch0, ch2 = ch2, ch0
	}

	mean := p.config.Mean
	std := p.config.Std
	i := 0
	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			r, g, b, _ := canvas.At(x, y).RGBA()
			ch0[i] = (float32(r>>8)/255.0 - mean[0]) / std[0]
			ch1[i] = (float32(g>>8)/255.0 - mean[1]) / std[1]
			ch2[i] = (float32(b>>8)/255.0 - mean[2]) / std[2]
			i++
		}
	}

	return st, nil
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
