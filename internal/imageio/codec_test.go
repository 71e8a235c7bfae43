package imageio

import (
	"errors"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 128})
			}
		}
	}
	return img
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "tex.png")
	src := checker(5, 3)

	require.NoError(t, Codec{}.Encode(src, path))
	got, err := Codec{}.Decode(path)
	require.NoError(t, err)

	assert.Equal(t, src.Bounds(), got.Bounds())
	assert.Equal(t, src.Pix, got.Pix)
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := Codec{}.Decode(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestDecodeGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0644))

	_, err := Codec{}.Decode(path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestDecodeBMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.bmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 0xff
	}
	src.Set(1, 2, color.RGBA{G: 200, A: 255})
	require.NoError(t, bmp.Encode(f, src))
	require.NoError(t, f.Close())

	got, err := Codec{}.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Bounds().Dx())
	assert.Equal(t, color.NRGBA{G: 200, A: 255}, got.NRGBAAt(1, 2))
}

func TestToNRGBAOffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 14, 12))
	src.SetNRGBA(10, 10, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	out := ToNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 4, 2), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, out.NRGBAAt(0, 0))
}
