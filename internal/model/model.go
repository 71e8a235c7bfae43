package model

import (
	"image"
	"math"
	"sort"
)

// Rect is an axis-aligned pixel rectangle on an atlas canvas.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Right returns the first column past the rectangle.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the first row past the rectangle.
func (r Rect) Bottom() int { return r.Y + r.H }

// Area returns the rectangle area in pixels.
func (r Rect) Area() int { return r.W * r.H }

// Intersects reports whether two rectangles overlap. Rectangles that only
// touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return !(r.X >= o.Right() || r.Right() <= o.X ||
		r.Y >= o.Bottom() || r.Bottom() <= o.Y)
}

// Within reports whether the rectangle lies inside a size x size canvas.
func (r Rect) Within(size int) bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= size && r.Bottom() <= size
}

// AtlasItem is the placement of one texture inside one atlas.
//
// The coordinates are stored as inverse scales: Width is canvas_size divided
// by the texture's pixel width and X is the normalized origin multiplied by
// Width. The pixel origin is therefore (X / Width) * canvas_size. Growing the
// canvas only rescales these four fields together.
type AtlasItem struct {
	Name    string  `json:"-"`
	Atlas   string  `json:"atlas"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding int     `json:"padding"`
}

// NewAtlasItem builds an item for a w x h texture whose top-left corner sits
// at pixel (px, py) on a canvas of the given size.
func NewAtlasItem(name string, px, py, w, h, size, padding int) AtlasItem {
	item := AtlasItem{Name: name, Padding: padding}
	item.Width = float64(size) / float64(w)
	item.Height = float64(size) / float64(h)
	item.X = (float64(px) / float64(size)) * item.Width
	item.Y = (float64(py) / float64(size)) * item.Height
	return item
}

// toPixel snaps a derived pixel coordinate to the integer it encodes.
// Rounding absorbs the float error of the division chain.
func toPixel(v float64) int {
	return int(math.Round(v))
}

// PixelOrigin returns the item's top-left pixel on a canvas of the given size.
func (it AtlasItem) PixelOrigin(size int) (int, int) {
	return toPixel((it.X / it.Width) * float64(size)),
		toPixel((it.Y / it.Height) * float64(size))
}

// PixelSize returns the unpadded texture size in pixels.
func (it AtlasItem) PixelSize(size int) (int, int) {
	return toPixel(float64(size) / it.Width), toPixel(float64(size) / it.Height)
}

// Footprint returns the padded pixel rectangle the item occupies.
func (it AtlasItem) Footprint(size int) Rect {
	x, y := it.PixelOrigin(size)
	w, h := it.PixelSize(size)
	return Rect{X: x, Y: y, W: w * it.Padding, H: h * it.Padding}
}

// Rescale returns the item re-expressed for a canvas of newSize while keeping
// its absolute pixel footprint unchanged.
func (it AtlasItem) Rescale(oldSize, newSize int) AtlasItem {
	x, y := it.PixelOrigin(oldSize)
	w, h := it.PixelSize(oldSize)
	out := NewAtlasItem(it.Name, x, y, w, h, newSize, it.Padding)
	out.Atlas = it.Atlas
	return out
}

// Valid reports whether the stored fields describe a usable placement.
func (it AtlasItem) Valid() bool {
	return it.Atlas != "" && it.Width > 0 && it.Height > 0 &&
		it.X >= 0 && it.Y >= 0 && it.Padding >= 1 &&
		!math.IsInf(it.Width, 0) && !math.IsInf(it.Height, 0)
}

// Mapping is the persisted texture name -> placement or exclusion table.
// A name is either placed or excluded, never both.
type Mapping struct {
	Placements map[string]AtlasItem
	Exclusions map[string]bool
}

func NewMapping() Mapping {
	return Mapping{
		Placements: make(map[string]AtlasItem),
		Exclusions: make(map[string]bool),
	}
}

// Place records a placement, dropping any exclusion for the same name.
func (m Mapping) Place(item AtlasItem) {
	delete(m.Exclusions, item.Name)
	m.Placements[item.Name] = item
}

// Exclude records an exclusion unless the name is already placed.
func (m Mapping) Exclude(name string) {
	if _, ok := m.Placements[name]; ok {
		return
	}
	m.Exclusions[name] = true
}

// Len returns the number of entries.
func (m Mapping) Len() int {
	return len(m.Placements) + len(m.Exclusions)
}

// ExcludedNames returns the excluded names in sorted order.
func (m Mapping) ExcludedNames() []string {
	names := make([]string, 0, len(m.Exclusions))
	for n := range m.Exclusions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AtlasNames returns the distinct atlas identifiers referenced by placements.
func (m Mapping) AtlasNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, it := range m.Placements {
		if !seen[it.Atlas] {
			seen[it.Atlas] = true
			names = append(names, it.Atlas)
		}
	}
	sort.Strings(names)
	return names
}

// ItemsFor returns the placements on one atlas, sorted by name.
func (m Mapping) ItemsFor(atlas string) []AtlasItem {
	var items []AtlasItem
	for _, it := range m.Placements {
		if it.Atlas == atlas {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// ClassRule assigns a material class to texture names matching Pattern.
type ClassRule struct {
	Pattern string `json:"pattern"`
	Class   string `json:"class"`
}

// AtlasSummary describes one finalized atlas of a packing run.
type AtlasSummary struct {
	Name    string      `json:"name"`
	Path    string      `json:"path"`
	Class   string      `json:"class"`
	Size    int         `json:"size"`
	Padding int         `json:"padding"`
	Items   []AtlasItem `json:"items"`
	Seeded  bool        `json:"seeded"`  // Reconstructed from a previous mapping
	Written bool        `json:"written"` // Image re-encoded during this run

	Image *image.NRGBA `json:"-"`
}

// UsedArea returns the total padded footprint area of all items.
func (a AtlasSummary) UsedArea() int {
	total := 0
	for _, it := range a.Items {
		total += it.Footprint(a.Size).Area()
	}
	return total
}

// TotalArea returns the canvas area.
func (a AtlasSummary) TotalArea() int {
	return a.Size * a.Size
}

// Efficiency returns the usage percentage.
func (a AtlasSummary) Efficiency() float64 {
	ta := a.TotalArea()
	if ta == 0 {
		return 0
	}
	return (float64(a.UsedArea()) / float64(ta)) * 100.0
}

// PackResult holds everything a packing run produced.
type PackResult struct {
	RunID       string         `json:"run_id"`
	ResourceSet string         `json:"resource_set"`
	MappingPath string         `json:"mapping_path"`
	Atlases     []AtlasSummary `json:"atlases"`
	Excluded    []string       `json:"excluded"`
	Mapping     Mapping        `json:"-"`
}

// TotalItems returns the number of placed textures across all atlases.
func (r PackResult) TotalItems() int {
	total := 0
	for _, a := range r.Atlases {
		total += len(a.Items)
	}
	return total
}

// TotalEfficiency returns overall canvas usage percentage.
func (r PackResult) TotalEfficiency() float64 {
	var used, total int
	for _, a := range r.Atlases {
		used += a.UsedArea()
		total += a.TotalArea()
	}
	if total == 0 {
		return 0
	}
	return (float64(used) / float64(total)) * 100.0
}
