// Package debug provides debug capture utilities.
package debug

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
)

// Screenshot formats, also used as file extensions.
const (
	FormatPNG = "png"
	FormatBMP = "bmp"
)

// ErrUnknownFormat is returned for file extensions SaveImage cannot encode.
var ErrUnknownFormat = errors.New("unknown image format")

// timestampLayout names screenshot files.
const timestampLayout = "2006-01-02_15-04-05"

// ImageFromPixels builds an image from RGBA rows read from an OpenGL
// framebuffer. The rows are flipped, as OpenGL puts the origin at the
// bottom-left.
func ImageFromPixels(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}

// ScreenshotName returns dir/prefix_<timestamp>.<format>.
func ScreenshotName(dir, prefix, format string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, at.Format(timestampLayout), format))
}

// SaveImage encodes img to path as PNG or BMP, chosen by the extension, and
// creates the parent directory.
func SaveImage(path string, img image.Image) error {
	var encode func(*os.File, image.Image) error
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case FormatPNG:
		encode = func(f *os.File, img image.Image) error { return png.Encode(f, img) }
	case FormatBMP:
		encode = func(f *os.File, img image.Image) error { return bmp.Encode(f, img) }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := encode(file, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return file.Close()
}
