package engine

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/piwi3910/atlaspack/internal/model"
)

// Canvas size ladder. A canvas starts at InitialSize and doubles until
// MaxSize.
const (
	InitialSize = 256
	MaxSize     = 4096
)

var opaqueBlack = image.NewUniform(color.NRGBA{A: 0xff})

// Canvas is one growing square atlas and the items placed on it.
type Canvas struct {
	name    string
	size    int
	padding int
	items   []model.AtlasItem
	names   map[string]bool
	img     *image.NRGBA
}

// NewCanvas creates an empty InitialSize canvas whose fresh placements use
// the given padding.
func NewCanvas(padding int) *Canvas {
	c, _ := newCanvasSize("", InitialSize, padding)
	return c
}

// newCanvasSize creates an empty canvas of an explicit size, used when an
// atlas from a previous run is reconstructed.
func newCanvasSize(name string, size, padding int) (*Canvas, error) {
	if !validSize(size) {
		return nil, fmt.Errorf("%w: got %d", ErrCanvasSize, size)
	}
	if padding < 1 {
		padding = 1
	}
	return &Canvas{
		name:    name,
		size:    size,
		padding: padding,
		names:   make(map[string]bool),
		img:     blankImage(size),
	}, nil
}

func validSize(size int) bool {
	return size >= InitialSize && size <= MaxSize && size&(size-1) == 0
}

// blankImage returns a size x size opaque black image.
func blankImage(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), opaqueBlack, image.Point{}, draw.Src)
	return img
}

// Name returns the atlas identifier, empty until the canvas is finalized.
func (c *Canvas) Name() string { return c.name }

// SetName assigns the atlas identifier and stamps it on every item.
func (c *Canvas) SetName(name string) {
	c.name = name
	for i := range c.items {
		c.items[i].Atlas = name
	}
}

// Size returns the current edge length in pixels.
func (c *Canvas) Size() int { return c.size }

// Padding returns the multiplier used for fresh placements.
func (c *Canvas) Padding() int { return c.padding }

// Len returns the number of placed items.
func (c *Canvas) Len() int { return len(c.items) }

// Contains reports whether a texture with this name is already placed.
func (c *Canvas) Contains(name string) bool { return c.names[name] }

// Items returns a copy of the placed items in placement order.
func (c *Canvas) Items() []model.AtlasItem {
	out := make([]model.AtlasItem, len(c.items))
	copy(out, c.items)
	return out
}

// Image returns the canvas pixel buffer. The buffer is replaced on growth,
// so callers must not hold on to it across Place calls.
func (c *Canvas) Image() *image.NRGBA { return c.img }

// Place finds room for the texture and composites it onto the canvas,
// growing the canvas up to MaxSize when nothing fits. It returns false when
// the texture cannot be placed even on a MaxSize canvas. Placing a name that
// is already present is a successful no-op.
func (c *Canvas) Place(name string, tex image.Image) bool {
	if c.names[name] {
		return true
	}
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || w*c.padding > MaxSize || h*c.padding > MaxSize {
		return false
	}

	for {
		if x, y, ok := c.search(w, h); ok {
			item := model.NewAtlasItem(name, x, y, w, h, c.size, c.padding)
			item.Atlas = c.name
			c.items = append(c.items, item)
			c.names[name] = true
			c.draw(x, y, item.Padding, tex)
			return true
		}
		if c.size >= MaxSize {
			return false
		}
		c.grow()
	}
}

// AddItem places an item whose coordinates are already fixed, typically
// loaded from a previous mapping. No search or intersection test is done.
func (c *Canvas) AddItem(item model.AtlasItem, tex image.Image) error {
	if tex.Bounds().Empty() {
		return ErrEmptyTexture
	}
	if c.names[item.Name] {
		return nil
	}
	if item.Padding < 1 {
		item.Padding = 1
	}
	item.Atlas = c.name
	c.items = append(c.items, item)
	c.names[item.Name] = true

	x, y := item.PixelOrigin(c.size)
	c.draw(x, y, item.Padding, tex)
	return nil
}

// search scans candidate origins row by row for a spot where a w x h texture
// at the canvas padding does not intersect any placed item.
func (c *Canvas) search(w, h int) (int, int, bool) {
	pw, ph := w*c.padding, h*c.padding
	if pw > c.size || ph > c.size {
		return 0, 0, false
	}
	for y := 0; y <= c.size-ph; {
		minSkip := math.MaxInt
		for x := 0; x <= c.size-pw; {
			hit, ok := c.intersect(model.Rect{X: x, Y: y, W: pw, H: ph})
			if !ok {
				return x, y, true
			}
			// Step by the width of the item we hit, not to its right edge,
			// and remember the shortest one in this row; the row cursor
			// advances by that amount. Placement order depends on both.
			minSkip = min(minSkip, hit.H)
			x += max(hit.W, 1)
		}
		y += max(minSkip, 1)
	}
	return 0, 0, false
}

// intersect returns the footprint of the first item overlapping r.
func (c *Canvas) intersect(r model.Rect) (model.Rect, bool) {
	for _, it := range c.items {
		fp := it.Footprint(c.size)
		if fp.Intersects(r) {
			return fp, true
		}
	}
	return model.Rect{}, false
}

// grow doubles the canvas, keeping every item's absolute pixel footprint
// and copying the existing pixels into the top-left corner.
func (c *Canvas) grow() {
	newSize := c.size << 1
	for i, it := range c.items {
		c.items[i] = it.Rescale(c.size, newSize)
	}

	img := blankImage(newSize)
	draw.Draw(img, c.img.Bounds(), c.img, image.Point{}, draw.Src)
	c.img = img
	c.size = newSize
}

// draw tiles tex padding times in both directions starting at (x, y), so
// that pixel (x+i, y+j) takes source pixel (i mod w, j mod h).
func (c *Canvas) draw(x, y, padding int, tex image.Image) {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	for ty := 0; ty < padding; ty++ {
		for tx := 0; tx < padding; tx++ {
			r := image.Rect(x+tx*w, y+ty*h, x+(tx+1)*w, y+(ty+1)*h)
			draw.Draw(c.img, r, tex, b.Min, draw.Src)
		}
	}
}
