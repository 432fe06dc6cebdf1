package raster

import "testing"

func sceneWithRed(t *testing.T, values [4]float64, valid [4]bool) *Image {
	t.Helper()
	im := NewImage(2, 2, Georef{CellSize: 30})
	g := NewGrid(2, 2)
	for i, v := range values {
		if valid[i] {
			g.Set(i%2, i/2, v)
		}
	}
	if err := im.AddBand("red", g); err != nil {
		t.Fatalf("AddBand: %v", err)
	}
	return im
}

func TestMedianCompositeSkipsMaskedPixels(t *testing.T) {
	all := [4]bool{true, true, true, true}
	scenes := []*Image{
		sceneWithRed(t, [4]float64{0.1, 0.5, 0.9, 0.2}, all),
		sceneWithRed(t, [4]float64{0.3, 0.5, 0.9, 0.2}, [4]bool{false, true, true, true}),
		sceneWithRed(t, [4]float64{0.7, 0.5, 0.9, 0.2}, all),
	}

	comp, err := MedianComposite(scenes)
	if err != nil {
		t.Fatalf("MedianComposite: %v", err)
	}
	red, _ := comp.Band("red")

	// Pixel (0,0): masked sample 0.3 excluded, median of {0.1, 0.7} = 0.4.
	// Were the mask treated as zero the median would be 0.1.
	if v, ok := red.At(0, 0); !ok || v != 0.4 {
		t.Errorf("median with masked sample = %v (valid=%v), want 0.4", v, ok)
	}
	if v, _ := red.At(1, 0); v != 0.5 {
		t.Errorf("odd-count median = %v, want 0.5", v)
	}
}

func TestMedianCompositeAllMaskedStaysInvalid(t *testing.T) {
	none := [4]bool{false, true, true, true}
	scenes := []*Image{
		sceneWithRed(t, [4]float64{0.1, 0.2, 0.3, 0.4}, none),
		sceneWithRed(t, [4]float64{0.5, 0.2, 0.3, 0.4}, none),
	}

	comp, err := MedianComposite(scenes)
	if err != nil {
		t.Fatalf("MedianComposite: %v", err)
	}
	red, _ := comp.Band("red")
	if _, ok := red.At(0, 0); ok {
		t.Error("pixel masked in every scene must stay invalid in the composite")
	}
}

func TestMedianCompositeErrors(t *testing.T) {
	if _, err := MedianComposite(nil); err != ErrNoScenes {
		t.Errorf("empty stack: got %v, want ErrNoScenes", err)
	}

	a := NewImage(2, 2, Georef{})
	a.AddBand("red", NewGrid(2, 2))
	b := NewImage(3, 3, Georef{})
	b.AddBand("red", NewGrid(3, 3))
	if _, err := MedianComposite([]*Image{a, b}); err != ErrShapeMismatch {
		t.Errorf("shape mismatch: got %v, want ErrShapeMismatch", err)
	}

	c := NewImage(2, 2, Georef{})
	c.AddBand("nir", NewGrid(2, 2))
	if _, err := MedianComposite([]*Image{a, c}); err != ErrNoBand {
		t.Errorf("band mismatch: got %v, want ErrNoBand", err)
	}
}
