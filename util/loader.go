// Package util - filesystem helpers for batch workloads.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olibartfast/rfdetr-inference/images"
)

// LoadDirectoryImages reads every supported image file from a directory,
// sorted by file name for deterministic batch ordering.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []string: The image file paths, sorted.
//   - []*images.Image: The loaded image buffers, parallel to the paths.
//   - error: An error if the directory cannot be read or an image is invalid.
func LoadDirectoryImages(dir string) ([]string, []*images.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp", ".bmp":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	bufs := make([]*images.Image, 0, len(paths))
	for _, path := range paths {
		img, err := images.Load(path)
		if err != nil {
			return nil, nil, err
		}
		bufs = append(bufs, img)
	}

	return paths, bufs, nil
}
