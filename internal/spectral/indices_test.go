package spectral

import (
	"math"
	"testing"
)

func defByName(t *testing.T, name string) indexDef {
	t.Helper()
	for _, def := range indexBattery {
		if def.name == name {
			return def
		}
	}
	t.Fatalf("no index named %s", name)
	return indexDef{}
}

func TestIndexFormulas(t *testing.T) {
	v := bandValues{blue: 0.05, green: 0.08, red: 0.1, nir: 0.5, swir1: 0.2, swir2: 0.15}

	ndvi := (0.5 - 0.1) / (0.5 + 0.1)
	ndwi := (0.08 - 0.5) / (0.08 + 0.5)

	tests := []struct {
		index string
		want  float64
	}{
		{index: "NDVI", want: ndvi},
		{index: "NDMI", want: (0.15 - 0.08) / (0.15 + 0.08)},
		{index: "NDWI", want: ndwi},
		{index: "MNDWI", want: (0.08 - 0.2) / (0.08 + 0.2)},
		{index: "SR", want: 0.5 / 0.1},
		{index: "GCVI", want: 0.5/0.08 - 1},
		{index: "SAVI", want: 1.5 * (0.5 - 0.1) / (0.5 + 0.1 + 0.5)},
		{index: "EVI", want: 2.5 * (0.5 - 0.1) / (0.5 + 6*0.1 - 7.5*0.05 + 1)},
		{index: "CMRI", want: ndvi - ndwi},
		{index: "MVI", want: (0.5 - 0.08) / (0.2 - 0.08)},
		{index: "MSI", want: 0.2 / 0.5},
		{index: "GCI", want: 0.5/0.08 - 1},
		{index: "BSI", want: ((0.2 + 0.1) - (0.5 + 0.05)) / ((0.2 + 0.1) + (0.5 + 0.05))},
		{index: "PSRI", want: (0.1 - 0.5) / 0.08},
		{index: "LAI", want: 3.618*ndvi - 0.118},
		{index: "GNDVI", want: (0.5 - 0.08) / (0.08 - 0.5)},
		{index: "AVI", want: math.Cbrt(0.5 * (1 - 0.1) * (0.5 - 0.1))},
	}

	for _, tt := range tests {
		t.Run(tt.index, func(t *testing.T) {
			got, ok := defByName(t, tt.index).fn(v)
			if !ok {
				t.Fatal("index reported undefined for valid inputs")
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNDVIKnownValue(t *testing.T) {
	got, ok := defByName(t, "NDVI").fn(bandValues{nir: 0.5, red: 0.1})
	if !ok {
		t.Fatal("NDVI undefined")
	}
	if math.Abs(got-0.6667) > 5e-5 {
		t.Errorf("NDVI(0.5, 0.1) = %v, want 0.6667", got)
	}
}

func TestLAIIsAffineInNDVI(t *testing.T) {
	lai, ok := defByName(t, "LAI").fn(bandValues{nir: 0.5, red: 0.1})
	if !ok {
		t.Fatal("LAI undefined")
	}
	if math.Abs(lai-2.295) > 1e-3 {
		t.Errorf("LAI for NDVI=0.6667: got %v, want ≈2.295", lai)
	}
}

func TestNormalizedDifferenceRange(t *testing.T) {
	// Normalized-difference indices stay in [-1, 1] for any nonnegative
	// reflectances with a nonzero denominator.
	values := []float64{0.01, 0.1, 0.25, 0.5, 0.9}
	ndIndices := []string{"NDVI", "NDMI", "NDWI", "MNDWI", "BSI"}

	for _, name := range ndIndices {
		def := defByName(t, name)
		for _, a := range values {
			for _, b := range values {
				v := bandValues{blue: a, green: b, red: b, nir: a, swir1: a, swir2: a}
				got, ok := def.fn(v)
				if !ok {
					continue
				}
				if got < -1 || got > 1 {
					t.Errorf("%s(%v, %v) = %v outside [-1, 1]", name, a, b, got)
				}
			}
		}
	}
}

func TestDivisionByZeroIsUndefined(t *testing.T) {
	tests := []struct {
		name  string
		index string
		v     bandValues
	}{
		{name: "NDVI with nir+red=0", index: "NDVI", v: bandValues{nir: 0, red: 0}},
		{name: "MVI with swir1=green", index: "MVI", v: bandValues{nir: 0.4, green: 0.2, swir1: 0.2}},
		{name: "MSI with nir=0", index: "MSI", v: bandValues{swir1: 0.2, nir: 0}},
		{name: "PSRI with green=0", index: "PSRI", v: bandValues{red: 0.2, nir: 0.4, green: 0}},
		{name: "GCVI with green=0", index: "GCVI", v: bandValues{nir: 0.4, green: 0}},
		{name: "SR with red=0", index: "SR", v: bandValues{nir: 0.4, red: 0}},
		{name: "GNDVI with green=nir", index: "GNDVI", v: bandValues{nir: 0.3, green: 0.3}},
		{name: "AVI with negative product", index: "AVI", v: bandValues{nir: 0.1, red: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := defByName(t, tt.index).fn(tt.v); ok {
				t.Errorf("expected undefined result, got %v", got)
			}
		})
	}
}

func TestLegacyIndicesOnlyForTM(t *testing.T) {
	oliNames := IndexNames(SensorOLI)
	for _, name := range oliNames {
		if name == "GNDVI" || name == "AVI" {
			t.Errorf("newer sensor path must not emit %s", name)
		}
	}

	tmNames := IndexNames(SensorTM)
	found := map[string]bool{}
	for _, name := range tmNames {
		found[name] = true
	}
	if !found["GNDVI"] || !found["AVI"] {
		t.Errorf("legacy sensor path missing GNDVI/AVI: %v", tmNames)
	}
	if len(tmNames) != len(oliNames)+2 {
		t.Errorf("legacy battery size = %d, want %d", len(tmNames), len(oliNames)+2)
	}
}
