package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/aaronalt/gcc-lulc/internal/raster"
)

func corrImage(t *testing.T) *raster.Image {
	t.Helper()
	im := raster.NewImage(4, 1, raster.Georef{CellSize: 30})

	a := raster.NewGrid(4, 1)
	b := raster.NewGrid(4, 1)
	c := raster.NewGrid(4, 1)
	for x := 0; x < 4; x++ {
		v := float64(x)
		a.Set(x, 0, v)
		b.Set(x, 0, 2*v+1) // perfectly correlated with a
		c.Set(x, 0, -v)    // perfectly anti-correlated with a
	}
	for name, g := range map[string]*raster.Grid{"a": a, "b": b, "c": c} {
		if err := im.AddBand(name, g); err != nil {
			t.Fatal(err)
		}
	}
	return im
}

func TestCorrelation(t *testing.T) {
	m, err := Correlation(corrImage(t), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Correlation failed: %v", err)
	}

	for i := range m.Bands {
		if m.Values[i][i] != 1 {
			t.Errorf("Diagonal [%d][%d] = %f, want 1", i, i, m.Values[i][i])
		}
	}
	if math.Abs(m.Values[0][1]-1) > 1e-9 {
		t.Errorf("corr(a,b) = %f, want 1", m.Values[0][1])
	}
	if math.Abs(m.Values[0][2]+1) > 1e-9 {
		t.Errorf("corr(a,c) = %f, want -1", m.Values[0][2])
	}
	if m.Values[1][2] != m.Values[2][1] {
		t.Error("Matrix is not symmetric")
	}
}

func TestCorrelation_SkipsMaskedPairwise(t *testing.T) {
	im := corrImage(t)
	b, _ := im.Band("b")
	// Break the perfect correlation at one pixel, then mask it out.
	b.Set(3, 0, 100)
	b.SetInvalid(3, 0)

	m, err := Correlation(im, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Correlation failed: %v", err)
	}
	if math.Abs(m.Values[0][1]-1) > 1e-9 {
		t.Errorf("Masked pixel leaked into correlation: %f", m.Values[0][1])
	}
}

func TestCorrelation_Errors(t *testing.T) {
	im := corrImage(t)
	if _, err := Correlation(im, []string{"a"}); !errors.Is(err, ErrTooFewBands) {
		t.Errorf("Expected ErrTooFewBands, got %v", err)
	}
	if _, err := Correlation(im, []string{"a", "missing"}); !errors.Is(err, raster.ErrNoBand) {
		t.Errorf("Expected ErrNoBand, got %v", err)
	}
}
