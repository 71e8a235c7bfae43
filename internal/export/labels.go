package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/atlaspack/internal/model"
)

// TagInfo holds the data encoded into each atlas page's QR code.
type TagInfo struct {
	Atlas       string  `json:"atlas"`
	RunID       string  `json:"run"`
	ResourceSet string  `json:"resource_set"`
	Class       string  `json:"class"`
	Size        int     `json:"size_px"`
	Padding     int     `json:"padding"`
	Items       int     `json:"items"`
	Efficiency  float64 `json:"efficiency"`
}

// Tag layout constants (mm).
const (
	tagWidth   = 95.0
	tagHeight  = 28.0
	qrSize     = 24.0
	tagPadding = 2.0
)

// TagFor builds the tag of one atlas of a packing run.
func TagFor(result model.PackResult, atlas model.AtlasSummary) TagInfo {
	return TagInfo{
		Atlas:       atlas.Name,
		RunID:       result.RunID,
		ResourceSet: result.ResourceSet,
		Class:       atlas.Class,
		Size:        atlas.Size,
		Padding:     atlas.Padding,
		Items:       len(atlas.Items),
		Efficiency:  atlas.Efficiency(),
	}
}

// CollectTags returns the tag of every atlas in result order.
func CollectTags(result model.PackResult) []TagInfo {
	tags := make([]TagInfo, 0, len(result.Atlases))
	for _, a := range result.Atlases {
		tags = append(tags, TagFor(result, a))
	}
	return tags
}

// tagQR renders the tag as a QR code PNG.
func tagQR(info TagInfo) ([]byte, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tag info: %w", err)
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// renderTag draws a bordered tag with the QR code on the right and the atlas
// identity on the left.
func renderTag(pdf *fpdf.Fpdf, x, y float64, info TagInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, tagWidth, tagHeight, "D")

	qrPNG, err := tagQR(info)
	if err != nil {
		return err
	}
	imgName := fmt.Sprintf("qr_%s_%s", info.RunID, info.Atlas)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + tagWidth - qrSize - tagPadding
	qrY := y + (tagHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + tagPadding
	textW := tagWidth - qrSize - 3*tagPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+tagPadding)

	atlas := info.Atlas
	if pdf.GetStringWidth(atlas) > textW {
		for len(atlas) > 0 && pdf.GetStringWidth(atlas+"...") > textW {
			atlas = atlas[:len(atlas)-1]
		}
		atlas += "..."
	}
	pdf.CellFormat(textW, 4.5, atlas, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+tagPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%d x %d px, padding %d", info.Size, info.Size, info.Padding), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+tagPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("%s / %s", info.ResourceSet, info.Class), "", 1, "L", false, 0, "")
	pdf.SetXY(textX, y+tagPadding+12.5)
	pdf.CellFormat(textW, 3, "run "+shortID(info.RunID), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// shortID returns the first block of a UUID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
