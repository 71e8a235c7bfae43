package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/atlaspack/internal/model"
)

// Workbook sheet names.
const (
	SheetPlacements = "Placements"
	SheetAtlases    = "Atlases"
	SheetExcluded   = "Excluded"
)

// ExportXLSX writes a workbook with one row per placement, per atlas and per
// excluded texture.
func ExportXLSX(file string, result model.PackResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetPlacements); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	for _, name := range []string{SheetAtlases, SheetExcluded} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	placements := [][]interface{}{{
		"Texture", "Atlas", "X (px)", "Y (px)", "Width (px)", "Height (px)", "Padding",
		"x", "y", "width", "height",
	}}
	atlases := [][]interface{}{{
		"Atlas", "Class", "Size (px)", "Textures", "Used (px)", "Efficiency (%)", "Seeded", "Written", "Path",
	}}
	for _, a := range result.Atlases {
		atlases = append(atlases, []interface{}{
			a.Name, a.Class, a.Size, len(a.Items), a.UsedArea(), round1(a.Efficiency()), a.Seeded, a.Written, a.Path,
		})
		for _, it := range a.Items {
			px, py := it.PixelOrigin(a.Size)
			w, h := it.PixelSize(a.Size)
			placements = append(placements, []interface{}{
				it.Name, a.Name, px, py, w, h, it.Padding,
				it.X, it.Y, it.Width, it.Height,
			})
		}
	}
	excluded := [][]interface{}{{"Texture"}}
	for _, name := range result.Excluded {
		excluded = append(excluded, []interface{}{name})
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetPlacements: placements,
		SheetAtlases:    atlases,
		SheetExcluded:   excluded,
	} {
		if err := writeRows(f, sheet, rows, header); err != nil {
			return err
		}
	}

	if err := f.SaveAs(file); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeRows fills a sheet starting at A1 and styles the first row.
func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
