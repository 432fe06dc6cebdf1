package classes

import (
	"bytes"
	"image/png"
	"testing"
)

func TestClassTable(t *testing.T) {
	if len(All) != 8 {
		t.Fatalf("class count = %d, want 8", len(All))
	}

	wantNames := []string{
		"Mangrove", "Agriculture", "DenseVeg", "SparseVeg",
		"UrbanGreen", "Bare", "Artificial", "Water",
	}
	for i, c := range All {
		if c.Value != i+1 {
			t.Errorf("class %d has value %d, want %d", i, c.Value, i+1)
		}
		if c.Name != wantNames[i] {
			t.Errorf("class %d name = %s, want %s", i, c.Name, wantNames[i])
		}
	}
}

func TestByValue(t *testing.T) {
	c, ok := ByValue(8)
	if !ok || c.Name != "Water" {
		t.Errorf("ByValue(8) = %v, %v; want Water", c, ok)
	}
	if _, ok := ByValue(0); ok {
		t.Error("ByValue(0) should not resolve")
	}
	if _, ok := ByValue(9); ok {
		t.Error("ByValue(9) should not resolve")
	}
}

func TestByName(t *testing.T) {
	c, ok := ByName("Mangrove")
	if !ok || c.Value != 1 {
		t.Errorf("ByName(Mangrove) = %v, %v; want value 1", c, ok)
	}
	if _, ok := ByName("Swamp"); ok {
		t.Error("unknown name should not resolve")
	}
}

func TestClassColor(t *testing.T) {
	c, _ := ByValue(8) // Water #1e90ff
	rgba := c.Color()
	if rgba.R != 0x1e || rgba.G != 0x90 || rgba.B != 0xff || rgba.A != 255 {
		t.Errorf("Water color = %+v, want 1e90ff", rgba)
	}
}

func TestWriteLegendPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLegendPNG(&buf); err != nil {
		t.Fatalf("WriteLegendPNG: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("legend is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Error("legend has empty bounds")
	}
}
