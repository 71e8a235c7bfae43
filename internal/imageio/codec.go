// Package imageio decodes source textures and encodes generated atlases.
package imageio

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	// Source texture formats.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
)

// Codec reads any registered image format and writes PNG.
type Codec struct {
	// Compression is the PNG compression level used by Encode.
	Compression png.CompressionLevel
}

// Decode reads the image at path and converts it to NRGBA. Errors from
// opening the file wrap fs.ErrNotExist when the file is missing.
func (c Codec) Decode(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return ToNRGBA(img), nil
}

// Encode writes img to path as PNG, creating parent directories.
func (c Codec) Encode(img *image.NRGBA, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	enc := png.Encoder{CompressionLevel: c.Compression}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// ToNRGBA returns img as an NRGBA image whose bounds start at the origin.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
