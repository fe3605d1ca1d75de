package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img), "encoding test PNG should succeed")
	return buf.Bytes()
}

// TestImageValidate validates the buffer precondition checks.
func TestImageValidate(t *testing.T) {
	valid := &Image{Format: FormatPNG, Data: encodeTestPNG(t, 4, 4), Width: 4, Height: 4}
	assert.NoError(t, valid.Validate())

	empty := &Image{Format: FormatPNG, Width: 4, Height: 4}
	assert.ErrorIs(t, empty.Validate(), ErrInvalidImage, "empty data should be invalid")

	zero := &Image{Format: FormatPNG, Data: []byte{1}, Width: 0, Height: 4}
	assert.ErrorIs(t, zero.Validate(), ErrInvalidImage, "zero width should be invalid")
}

// TestImageDecode validates decoding of a valid buffer and rejection of
// garbage data.
func TestImageDecode(t *testing.T) {
	buf := &Image{Format: FormatPNG, Data: encodeTestPNG(t, 8, 6), Width: 8, Height: 6}
	img, err := buf.Decode()
	require.NoError(t, err, "decoding a valid PNG should succeed")
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())

	garbage := &Image{Format: FormatPNG, Data: []byte("not an image"), Width: 8, Height: 6}
	_, err = garbage.Decode()
	assert.ErrorIs(t, err, ErrInvalidImage, "garbage data should fail with ErrInvalidImage")
}

// TestLoad validates loading an image file from disk with dimension sniffing.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	require.NoError(t, os.WriteFile(path, encodeTestPNG(t, 32, 24), 0o644))

	img, err := Load(path)
	require.NoError(t, err, "loading an on-disk PNG should succeed")
	assert.Equal(t, FormatPNG, img.Format)
	assert.Equal(t, 32, img.Width)
	assert.Equal(t, 24, img.Height)

	_, err = Load(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, ErrInvalidImage, "missing file should fail with ErrInvalidImage")
}
