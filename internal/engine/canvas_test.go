package engine

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/atlaspack/internal/model"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	black = color.NRGBA{A: 255}
)

func origins(c *Canvas) map[string]image.Point {
	out := make(map[string]image.Point)
	for _, it := range c.Items() {
		x, y := it.PixelOrigin(c.Size())
		out[it.Name] = image.Pt(x, y)
	}
	return out
}

func assertNoOverlap(t *testing.T, c *Canvas) {
	t.Helper()
	items := c.Items()
	for i := range items {
		fp := items[i].Footprint(c.Size())
		assert.True(t, fp.Within(c.Size()), "%s footprint %+v outside %d canvas", items[i].Name, fp, c.Size())
		for j := i + 1; j < len(items); j++ {
			other := items[j].Footprint(c.Size())
			assert.False(t, fp.Intersects(other), "%s overlaps %s", items[i].Name, items[j].Name)
		}
	}
}

func TestNewCanvas(t *testing.T) {
	c := NewCanvas(4)

	assert.Equal(t, InitialSize, c.Size())
	assert.Equal(t, 4, c.Padding())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, "", c.Name())
	assert.Equal(t, image.Rect(0, 0, InitialSize, InitialSize), c.Image().Bounds())
	assert.Equal(t, black, c.Image().NRGBAAt(100, 200))
}

func TestNewCanvasSize_Invalid(t *testing.T) {
	for _, size := range []int{0, 128, 300, 8192} {
		_, err := newCanvasSize("x", size, 1)
		assert.ErrorIs(t, err, ErrCanvasSize, "size %d", size)
	}
	c, err := newCanvasSize("x", 1024, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Padding(), "padding is clamped to 1")
}

func TestPlace_FourTexturesNoGrowth(t *testing.T) {
	c := NewCanvas(1)

	require.True(t, c.Place("a", solid(16, 16, red)))
	require.True(t, c.Place("b", solid(16, 16, green)))
	require.True(t, c.Place("c", solid(32, 32, blue)))
	require.True(t, c.Place("d", solid(8, 8, red)))

	assert.Equal(t, InitialSize, c.Size(), "no growth expected")
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, map[string]image.Point{
		"a": {0, 0},
		"b": {16, 0},
		"c": {32, 0},
		"d": {64, 0},
	}, origins(c))
	assertNoOverlap(t, c)

	img := c.Image()
	assert.Equal(t, red, img.NRGBAAt(15, 15))
	assert.Equal(t, green, img.NRGBAAt(16, 0))
	assert.Equal(t, blue, img.NRGBAAt(63, 31))
	assert.Equal(t, red, img.NRGBAAt(71, 7))
	assert.Equal(t, black, img.NRGBAAt(72, 0))
}

func TestPlace_ColumnStepsByHitWidth(t *testing.T) {
	c := NewCanvas(1)
	require.NoError(t, c.AddItem(model.NewAtlasItem("wall", 5, 0, 20, 20, InitialSize, 1), solid(20, 20, blue)))

	// x=0 hits the wall and steps by its width to x=20, which still hits
	// it, so the next candidate is x=40 rather than the wall's right edge.
	require.True(t, c.Place("t", solid(10, 10, red)))
	assert.Equal(t, image.Pt(40, 0), origins(c)["t"])
	assertNoOverlap(t, c)
}

func TestPlace_RowStepsByShortestHit(t *testing.T) {
	c := NewCanvas(1)
	require.NoError(t, c.AddItem(model.NewAtlasItem("tall", 0, 0, 128, 200, InitialSize, 1), solid(128, 200, blue)))
	require.NoError(t, c.AddItem(model.NewAtlasItem("short", 128, 0, 128, 12, InitialSize, 1), solid(128, 12, green)))

	// Row 0 is full; the next row starts 12 pixels down, below "short".
	require.True(t, c.Place("t", solid(25, 12, red)))
	assert.Equal(t, image.Pt(128, 12), origins(c)["t"])
}

func TestPlace_PaddingTilesTexture(t *testing.T) {
	c := NewCanvas(2)
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	tex.SetNRGBA(0, 0, red)
	tex.SetNRGBA(1, 0, green)

	require.True(t, c.Place("t", tex))

	img := c.Image()
	for y := 0; y < 2; y++ {
		assert.Equal(t, red, img.NRGBAAt(0, y))
		assert.Equal(t, green, img.NRGBAAt(1, y))
		assert.Equal(t, red, img.NRGBAAt(2, y))
		assert.Equal(t, green, img.NRGBAAt(3, y))
	}
	assert.Equal(t, black, img.NRGBAAt(4, 0))
	assert.Equal(t, black, img.NRGBAAt(0, 2))

	fp := c.Items()[0].Footprint(c.Size())
	assert.Equal(t, model.Rect{X: 0, Y: 0, W: 4, H: 2}, fp)
}

func TestPlace_Idempotent(t *testing.T) {
	c := NewCanvas(1)
	require.True(t, c.Place("a", solid(16, 16, red)))

	items := c.Items()
	pix := append([]uint8(nil), c.Image().Pix...)

	require.True(t, c.Place("a", solid(32, 32, green)))
	assert.Equal(t, items, c.Items())
	assert.Equal(t, pix, c.Image().Pix)
}

func TestPlace_GrowthPreservesFootprints(t *testing.T) {
	c := NewCanvas(4)
	require.True(t, c.Place("a", solid(64, 64, red)))
	require.Equal(t, InitialSize, c.Size())
	before := c.Items()[0].Footprint(c.Size())

	require.True(t, c.Place("b", solid(64, 64, green)))
	assert.Equal(t, 2*InitialSize, c.Size())

	items := c.Items()
	assert.Equal(t, before, items[0].Footprint(c.Size()))
	assert.Equal(t, model.Rect{X: 256, Y: 0, W: 256, H: 256}, items[1].Footprint(c.Size()))
	assertNoOverlap(t, c)

	img := c.Image()
	assert.Equal(t, red, img.NRGBAAt(255, 255), "old pixels copied into the grown canvas")
	assert.Equal(t, green, img.NRGBAAt(256, 0))
	assert.Equal(t, black, img.NRGBAAt(0, 256))
}

func TestGrow_RescalesEveryItem(t *testing.T) {
	c := NewCanvas(1)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		require.True(t, c.Place(string(rune('a'+i)), solid(1+rng.Intn(40), 1+rng.Intn(40), red)))
	}
	oldSize := c.Size()
	before := make(map[string]model.Rect)
	for _, it := range c.Items() {
		before[it.Name] = it.Footprint(oldSize)
	}

	c.grow()

	assert.Equal(t, oldSize*2, c.Size())
	for _, it := range c.Items() {
		assert.Equal(t, before[it.Name], it.Footprint(c.Size()), it.Name)
	}
}

func TestPlace_TooLargeForMaxSize(t *testing.T) {
	c := NewCanvas(4)

	assert.False(t, c.Place("huge", solid(1025, 1, red)))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, InitialSize, c.Size(), "hopeless textures must not grow the canvas")
	assert.False(t, c.Place("empty", image.NewNRGBA(image.Rect(0, 0, 0, 0))))
}

func TestPlace_ExhaustedAtMaxSize(t *testing.T) {
	c := NewCanvas(1)
	tile := solid(1024, 1024, green)
	for i := 0; i < 16; i++ {
		require.True(t, c.Place(string(rune('a'+i)), tile), "tile %d", i)
	}
	require.Equal(t, MaxSize, c.Size())
	items := c.Items()

	assert.False(t, c.Place("overflow", tile))
	assert.False(t, c.Place("speck", solid(1, 1, red)))
	assert.Equal(t, MaxSize, c.Size())
	assert.Equal(t, items, c.Items())
	assert.False(t, c.Contains("overflow"))
	assert.False(t, c.Contains("speck"))
}

func TestPlace_RandomTexturesStayDisjoint(t *testing.T) {
	c := NewCanvas(2)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 80; i++ {
		w, h := 1+rng.Intn(48), 1+rng.Intn(48)
		name := "tex_" + string(rune('A'+i%26)) + string(rune('a'+i/26))
		require.True(t, c.Place(name, solid(w, h, green)), "place %s %dx%d", name, w, h)
	}
	assert.Equal(t, 80, c.Len())
	assertNoOverlap(t, c)
}

func TestAddItem(t *testing.T) {
	c, err := newCanvasSize("atlaspack:block/atlas_1", 512, 4)
	require.NoError(t, err)

	item := model.NewAtlasItem("mc:block/stone", 32, 16, 8, 8, 512, 2)
	require.NoError(t, c.AddItem(item, solid(8, 8, blue)))

	assert.True(t, c.Contains("mc:block/stone"))
	got := c.Items()[0]
	assert.Equal(t, "atlaspack:block/atlas_1", got.Atlas)
	assert.Equal(t, 2, got.Padding, "stored padding wins over canvas padding")
	assert.Equal(t, blue, c.Image().NRGBAAt(32, 16))
	assert.Equal(t, blue, c.Image().NRGBAAt(47, 31))
	assert.Equal(t, black, c.Image().NRGBAAt(48, 16))

	assert.ErrorIs(t, c.AddItem(model.NewAtlasItem("x", 0, 0, 1, 1, 512, 1), image.NewNRGBA(image.Rect(0, 0, 0, 0))), ErrEmptyTexture)

	// New placements avoid seeded items.
	require.True(t, c.Place("mc:block/dirt", solid(8, 8, red)))
	assertNoOverlap(t, c)
}

func TestSetNameStampsItems(t *testing.T) {
	c := NewCanvas(1)
	require.True(t, c.Place("a", solid(4, 4, red)))
	require.True(t, c.Place("b", solid(4, 4, red)))

	c.SetName("gen:block/atlas_3")
	for _, it := range c.Items() {
		assert.Equal(t, "gen:block/atlas_3", it.Atlas)
	}
}
