package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/piwi3910/atlaspack/internal/model"
)

// DXF layer names.
const (
	LayerAtlas      = "ATLAS"
	LayerFootprints = "FOOTPRINTS"
	LayerLabels     = "LABELS"
)

// atlasGap is the horizontal distance between atlases in drawing units.
const atlasGap = 64.0

// ExportDXF writes every atlas outline and item footprint as closed
// polylines, one drawing unit per pixel. Atlases are laid out left to right
// and the Y axis points up, so pixel row r maps to y = -r.
func ExportDXF(file string, result model.PackResult) error {
	if len(result.Atlases) == 0 {
		return fmt.Errorf("no atlases to export")
	}

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LayerAtlas, color.ColorNumber(7), dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("failed to add layer: %w", err)
	}
	if _, err := d.AddLayer(LayerFootprints, color.ColorNumber(3), dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("failed to add layer: %w", err)
	}
	if _, err := d.AddLayer(LayerLabels, color.ColorNumber(5), dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("failed to add layer: %w", err)
	}

	offsetX := 0.0
	for _, a := range result.Atlases {
		size := float64(a.Size)

		if err := d.ChangeLayer(LayerAtlas); err != nil {
			return err
		}
		if err := rect(d, offsetX, 0, size, size); err != nil {
			return fmt.Errorf("failed to draw atlas %s: %w", a.Name, err)
		}

		if err := d.ChangeLayer(LayerFootprints); err != nil {
			return err
		}
		for _, it := range a.Items {
			fp := it.Footprint(a.Size)
			if err := rect(d, offsetX+float64(fp.X), float64(fp.Y), float64(fp.W), float64(fp.H)); err != nil {
				return fmt.Errorf("failed to draw %s: %w", it.Name, err)
			}
		}

		if err := d.ChangeLayer(LayerLabels); err != nil {
			return err
		}
		if _, err := d.Text(a.Name, offsetX, 8, 0, 12); err != nil {
			return fmt.Errorf("failed to label atlas %s: %w", a.Name, err)
		}

		offsetX += size + atlasGap
	}

	return d.SaveAs(file)
}

// rect draws a closed polyline for a pixel rectangle with its top-left at
// (x, y) in image coordinates.
func rect(d *dxf.Drawing, x, y, w, h float64) error {
	_, err := d.LwPolyline(true,
		[]float64{x, -y},
		[]float64{x + w, -y},
		[]float64{x + w, -(y + h)},
		[]float64{x, -(y + h)},
	)
	return err
}
