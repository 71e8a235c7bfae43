// Package export writes reports about packing results: a PDF layout report,
// an XLSX placement workbook and a DXF outline drawing.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/draw"

	"github.com/piwi3910/atlaspack/internal/model"
)

// itemColor represents an RGB outline color for a placed texture.
type itemColor struct {
	R, G, B int
}

var itemColors = []itemColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendWidth  = 95.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// maxThumbnail caps the edge of the atlas image embedded in the report.
const maxThumbnail = 1024

// ExportPDF generates a PDF document describing a packing run. Each atlas is
// rendered on its own page with its image, item outlines and a QR tag,
// followed by a summary page.
func ExportPDF(file string, result model.PackResult) error {
	if len(result.Atlases) == 0 {
		return fmt.Errorf("no atlases to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	tags := CollectTags(result)
	for i, atlas := range result.Atlases {
		pdf.AddPage()
		if err := renderAtlasPage(pdf, atlas, tags[i], i+1); err != nil {
			return fmt.Errorf("failed to render atlas %s: %w", atlas.Name, err)
		}
	}

	pdf.AddPage()
	renderSummaryPage(pdf, result)

	return pdf.OutputFileAndClose(file)
}

// renderAtlasPage draws a single atlas on the current PDF page.
func renderAtlasPage(pdf *fpdf.Fpdf, atlas model.AtlasSummary, tag TagInfo, atlasNum int) error {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Atlas %d: %s (%d x %d px)", atlasNum, atlas.Name, atlas.Size, atlas.Size)
	pdf.CellFormat(pageWidth-marginLeft-marginRight-legendWidth, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Class: %s | Textures: %d | Used: %d px | Efficiency: %.1f%%",
		atlas.Class, len(atlas.Items), atlas.UsedArea(), atlas.Efficiency())
	pdf.CellFormat(pageWidth-marginLeft-marginRight-legendWidth, 5, stats, "", 0, "L", false, 0, "")

	drawSide := pageHeight - drawAreaTop - marginBottom
	scale := drawSide / float64(atlas.Size)
	offsetX := marginLeft
	offsetY := drawAreaTop

	pdf.SetFillColor(0, 0, 0)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(offsetX, offsetY, drawSide, drawSide, "FD")

	if atlas.Image != nil {
		data, err := encodeThumbnail(atlas.Image, maxThumbnail)
		if err != nil {
			return err
		}
		imgName := fmt.Sprintf("atlas_%d", atlasNum)
		pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
		pdf.ImageOptions(imgName, offsetX, offsetY, drawSide, drawSide, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	// Item footprints
	pdf.SetLineWidth(0.2)
	for i, it := range atlas.Items {
		col := itemColors[i%len(itemColors)]
		fp := it.Footprint(atlas.Size)
		pdf.SetDrawColor(col.R, col.G, col.B)
		pdf.Rect(offsetX+float64(fp.X)*scale, offsetY+float64(fp.Y)*scale,
			float64(fp.W)*scale, float64(fp.H)*scale, "D")
	}

	legendX := pageWidth - marginRight - legendWidth
	if err := renderTag(pdf, legendX, marginTop, tag); err != nil {
		return err
	}
	drawItemLegend(pdf, atlas, legendX, marginTop+tagHeight+4)
	return nil
}

// drawItemLegend lists the placed textures next to the atlas drawing,
// truncating the list when it runs off the page.
func drawItemLegend(pdf *fpdf.Fpdf, atlas model.AtlasSummary, x, y float64) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x, y)
	pdf.CellFormat(legendWidth, 4, "Textures placed:", "", 0, "L", false, 0, "")
	y += 5

	pdf.SetFont("Helvetica", "", 6)
	maxY := pageHeight - marginBottom - 4
	for i, it := range atlas.Items {
		if y > maxY {
			pdf.SetXY(x, y)
			pdf.CellFormat(legendWidth, 3, fmt.Sprintf("... and %d more", len(atlas.Items)-i), "", 0, "L", false, 0, "")
			return
		}
		col := itemColors[i%len(itemColors)]
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(x, y+0.5, 2, 2, "F")

		px, py := it.PixelOrigin(atlas.Size)
		w, h := it.PixelSize(atlas.Size)
		label := fmt.Sprintf("%s  %dx%d @ (%d, %d) x%d", it.Name, w, h, px, py, it.Padding)
		pdf.SetXY(x+3, y)
		pdf.CellFormat(legendWidth-3, 3, label, "", 0, "L", false, 0, "")
		y += 3.2
	}
}

// renderSummaryPage draws the final summary page with overall statistics.
func renderSummaryPage(pdf *fpdf.Fpdf, result model.PackResult) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Texture Atlas Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Run", result.RunID},
		{"Resource Set", result.ResourceSet},
		{"Atlases", fmt.Sprintf("%d", len(result.Atlases))},
		{"Textures Placed", fmt.Sprintf("%d", result.TotalItems())},
		{"Textures Excluded", fmt.Sprintf("%d", len(result.Excluded))},
		{"Overall Efficiency", fmt.Sprintf("%.1f%%", result.TotalEfficiency())},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Atlas Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{15, 90, 40, 25, 25, 30, 42}
	headers := []string{"#", "Atlas", "Class", "Size", "Textures", "Efficiency", "State"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, atlas := range result.Atlases {
		xPos = marginLeft
		rowData := []string{
			fmt.Sprintf("%d", i+1),
			atlas.Name,
			atlas.Class,
			fmt.Sprintf("%d", atlas.Size),
			fmt.Sprintf("%d", len(atlas.Items)),
			fmt.Sprintf("%.1f%%", atlas.Efficiency()),
			atlasState(atlas),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	if len(result.Excluded) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "Excluded Textures", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 8)
		maxY := pageHeight - marginBottom - 8
		for i, name := range result.Excluded {
			if y > maxY {
				pdf.SetXY(marginLeft+5, y)
				pdf.CellFormat(200, 4, fmt.Sprintf("... and %d more", len(result.Excluded)-i), "", 0, "L", false, 0, "")
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(200, 4, "- "+name, "", 0, "L", false, 0, "")
			y += 4
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by atlaspack - "+filepath.Base(result.MappingPath), "", 0, "C", false, 0, "")
}

func atlasState(a model.AtlasSummary) string {
	switch {
	case a.Seeded && a.Written:
		return "updated"
	case a.Seeded:
		return "unchanged"
	default:
		return "new"
	}
}

// encodeThumbnail returns img as PNG, downscaled so that neither edge
// exceeds maxEdge.
func encodeThumbnail(img image.Image, maxEdge int) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() > maxEdge || b.Dy() > maxEdge {
		f := float64(maxEdge) / math.Max(float64(b.Dx()), float64(b.Dy()))
		dst := image.NewNRGBA(image.Rect(0, 0, int(float64(b.Dx())*f), int(float64(b.Dy())*f)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
