package export

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/atlaspack/internal/model"
)

func item(name, atlas string, px, py, w, h, size, padding int) model.AtlasItem {
	it := model.NewAtlasItem(name, px, py, w, h, size, padding)
	it.Atlas = atlas
	return it
}

// buildTestResult creates a realistic packing result for testing.
func buildTestResult() model.PackResult {
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	return model.PackResult{
		RunID:       "0b7f8a9e-3c1d-4e5f-8a6b-7c8d9e0f1a2b",
		ResourceSet: "base_resource_pack",
		MappingPath: "/packs/base_resource_pack/atlas_mapping.json",
		Atlases: []model.AtlasSummary{
			{
				Name:    "atlaspack:block/atlas_1",
				Path:    "/packs/base_resource_pack/assets/atlaspack/textures/block/atlas_1.png",
				Class:   "solid",
				Size:    256,
				Padding: 4,
				Written: true,
				Image:   img,
				Items: []model.AtlasItem{
					item("minecraft:block/stone", "atlaspack:block/atlas_1", 0, 0, 16, 16, 256, 4),
					item("minecraft:block/dirt", "atlaspack:block/atlas_1", 64, 0, 16, 16, 256, 4),
					item("minecraft:block/oak_planks", "atlaspack:block/atlas_1", 128, 0, 16, 16, 256, 4),
				},
			},
			{
				Name:    "atlaspack:block/atlas_2",
				Class:   "translucent",
				Size:    512,
				Padding: 4,
				Seeded:  true,
				Items: []model.AtlasItem{
					item("minecraft:block/glass", "atlaspack:block/atlas_2", 0, 0, 16, 16, 512, 2),
				},
			},
		},
		Excluded: []string{"minecraft:block/lava_still", "minecraft:block/water_still"},
	}
}

func TestExportPDF_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_output.pdf")

	if err := ExportPDF(path, buildTestResult()); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
}

func TestExportPDF_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	if err := ExportPDF(path, model.PackResult{}); err == nil {
		t.Fatal("expected error for empty result, got nil")
	}
}

func TestExportPDF_ManyItemsAndExclusions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many.pdf")

	result := buildTestResult()
	atlas := &result.Atlases[0]
	atlas.Size = 4096
	atlas.Items = nil
	for i := 0; i < 200; i++ {
		atlas.Items = append(atlas.Items, item("mod:block/t", atlas.Name, (i%64)*64, (i/64)*64, 16, 16, 4096, 4))
	}
	for i := 0; i < 100; i++ {
		result.Excluded = append(result.Excluded, "mod:block/excluded")
	}

	if err := ExportPDF(path, result); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
}

func TestEncodeThumbnail_Downscales(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2048, 2048))
	data, err := encodeThumbnail(src, 512)
	if err != nil {
		t.Fatalf("encodeThumbnail failed: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytesReader(data))
	if err != nil {
		t.Fatalf("thumbnail is not an image: %v", err)
	}
	if cfg.Width != 512 || cfg.Height != 512 {
		t.Errorf("expected 512x512 thumbnail, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestAtlasState(t *testing.T) {
	tests := []struct {
		atlas model.AtlasSummary
		want  string
	}{
		{model.AtlasSummary{Written: true}, "new"},
		{model.AtlasSummary{Seeded: true, Written: true}, "updated"},
		{model.AtlasSummary{Seeded: true}, "unchanged"},
	}
	for _, tt := range tests {
		if got := atlasState(tt.atlas); got != tt.want {
			t.Errorf("atlasState(%+v) = %s, want %s", tt.atlas, got, tt.want)
		}
	}
}
