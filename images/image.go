// Package images - image buffers and geometry shared by the inference pipeline.
package images

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
)

// ErrInvalidImage reports an image the pipeline cannot consume: zero
// dimensions, empty data, or an undecodable payload.
var ErrInvalidImage = errors.New("invalid image")

// ImageFormat represents supported image formats.
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
)

// Image represents an encoded image with a format, data, width, and height.
// The pipeline treats it as read-only.
type Image struct {
	// The format of the image.
	Format ImageFormat `json:"format" yaml:"format"`
	// The raw encoded bytes of the image.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image in pixels.
	Width int `json:"width" yaml:"width"`
	// The height of the image in pixels.
	Height int `json:"height" yaml:"height"`
}

// Validate checks that the buffer describes a decodable, non-empty image.
//
// Returns:
//   - error: ErrInvalidImage (wrapped) if the buffer is unusable, nil otherwise.
func (i *Image) Validate() error {
	if len(i.Data) == 0 {
		return errors.Wrap(ErrInvalidImage, "empty image data")
	}
	if i.Width <= 0 || i.Height <= 0 {
		return errors.Wrapf(ErrInvalidImage, "bad dimensions %dx%d", i.Width, i.Height)
	}
	return nil
}

// Decode decodes the raw bytes into an image.Image.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: ErrInvalidImage (wrapped) if validation or decoding fails.
func (i *Image) Decode() (image.Image, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}

	if i.Format == FormatWebP {
		img, err := webp.Decode(bytes.NewReader(i.Data))
		if err != nil {
			return nil, errors.Wrap(ErrInvalidImage, err.Error())
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(i.Data))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidImage, err.Error())
	}
	return img, nil
}

// Load reads an image file from disk into an Image buffer.
//
// Arguments:
//   - path: Path to the image file (.jpg, .jpeg, .png, .webp, .bmp, .gif).
//
// Returns:
//   - *Image: The loaded image buffer with dimensions populated.
//   - error: ErrInvalidImage (wrapped) if the file is missing or undecodable.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidImage, "reading %s: %s", path, err)
	}

	format := formatForExtension(filepath.Ext(path))
	img := &Image{Format: format, Data: data}

	// Decode the header to populate dimensions. Full pixel decode happens
	// once, inside the codec, via Decode.
	var cfg image.Config
	if format == FormatWebP {
		c, cfgErr := webp.DecodeConfig(bytes.NewReader(data))
		if cfgErr != nil {
			return nil, errors.Wrapf(ErrInvalidImage, "decoding %s: %s", path, cfgErr)
		}
		cfg = c
	} else {
		c, _, cfgErr := image.DecodeConfig(bytes.NewReader(data))
		if cfgErr != nil {
			return nil, errors.Wrapf(ErrInvalidImage, "decoding %s: %s", path, cfgErr)
		}
		cfg = c
	}
	img.Width = cfg.Width
	img.Height = cfg.Height

	return img, nil
}

func formatForExtension(ext string) ImageFormat {
	switch strings.ToLower(ext) {
	case ".png":
		return FormatPNG
	case ".webp":
		return FormatWebP
	case ".bmp":
		return FormatBMP
	default:
		return FormatJPEG
	}
}
