package spectral

import "math"

// bandValues carries one pixel's canonical reflectance values.
type bandValues struct {
	blue, green, red, nir, swir1, swir2 float64
}

// indexDef is one derived band: its output name, the canonical bands it
// reads, whether it belongs to the legacy-only subset, and the pure
// per-pixel formula. The formula reports ok=false where the result is
// undefined (division by zero, negative base to a fractional power);
// that invalidates the one band/pixel and nothing else.
type indexDef struct {
	name   string
	needs  []string
	legacy bool
	fn     func(v bandValues) (float64, bool)
}

// normalized difference (a−b)/(a+b), undefined when a+b is zero.
func nd(a, b float64) (float64, bool) {
	if a+b == 0 {
		return 0, false
	}
	return (a - b) / (a + b), true
}

func ratio(a, b float64) (float64, bool) {
	if b == 0 {
		return 0, false
	}
	return a / b, true
}

// indexBattery is the full battery of derived bands, in output order.
// Formulas follow the study's definitions exactly, including the
// inverted GNDVI denominator, which is preserved as found.
var indexBattery = []indexDef{
	{name: "NDVI", needs: []string{BandNIR, BandRed}, fn: func(v bandValues) (float64, bool) {
		return nd(v.nir, v.red)
	}},
	{name: "NDMI", needs: []string{BandSwir2, BandGreen}, fn: func(v bandValues) (float64, bool) {
		return nd(v.swir2, v.green)
	}},
	{name: "NDWI", needs: []string{BandGreen, BandNIR}, fn: func(v bandValues) (float64, bool) {
		return nd(v.green, v.nir)
	}},
	{name: "MNDWI", needs: []string{BandGreen, BandSwir1}, fn: func(v bandValues) (float64, bool) {
		return nd(v.green, v.swir1)
	}},
	{name: "SR", needs: []string{BandNIR, BandRed}, fn: func(v bandValues) (float64, bool) {
		return ratio(v.nir, v.red)
	}},
	{name: "GCVI", needs: []string{BandNIR, BandGreen}, fn: gcvi},
	{name: "SAVI", needs: []string{BandNIR, BandRed}, fn: func(v bandValues) (float64, bool) {
		den := v.nir + v.red + 0.5
		if den == 0 {
			return 0, false
		}
		return 1.5 * (v.nir - v.red) / den, true
	}},
	{name: "EVI", needs: []string{BandNIR, BandRed, BandBlue}, fn: func(v bandValues) (float64, bool) {
		den := v.nir + 6*v.red - 7.5*v.blue + 1
		if den == 0 {
			return 0, false
		}
		return 2.5 * (v.nir - v.red) / den, true
	}},
	{name: "CMRI", needs: []string{BandNIR, BandRed, BandGreen}, fn: func(v bandValues) (float64, bool) {
		ndvi, ok1 := nd(v.nir, v.red)
		ndwi, ok2 := nd(v.green, v.nir)
		if !ok1 || !ok2 {
			return 0, false
		}
		return ndvi - ndwi, true
	}},
	{name: "MVI", needs: []string{BandNIR, BandGreen, BandSwir1}, fn: func(v bandValues) (float64, bool) {
		return ratio(v.nir-v.green, v.swir1-v.green)
	}},
	{name: "MSI", needs: []string{BandSwir1, BandNIR}, fn: func(v bandValues) (float64, bool) {
		return ratio(v.swir1, v.nir)
	}},
	// GCI shares GCVI's formula but stays a distinct output band.
	{name: "GCI", needs: []string{BandNIR, BandGreen}, fn: gcvi},
	{name: "BSI", needs: []string{BandSwir1, BandRed, BandNIR, BandBlue}, fn: func(v bandValues) (float64, bool) {
		return nd(v.swir1+v.red, v.nir+v.blue)
	}},
	{name: "PSRI", needs: []string{BandRed, BandNIR, BandGreen}, fn: func(v bandValues) (float64, bool) {
		return ratio(v.red-v.nir, v.green)
	}},
	{name: "LAI", needs: []string{BandNIR, BandRed}, fn: func(v bandValues) (float64, bool) {
		ndvi, ok := nd(v.nir, v.red)
		if !ok {
			return 0, false
		}
		return 3.618*ndvi - 0.118, true
	}},
	// GNDVI's denominator is inverted relative to the conventional
	// definition. Kept as-is pending independent verification.
	{name: "GNDVI", needs: []string{BandNIR, BandGreen}, legacy: true, fn: func(v bandValues) (float64, bool) {
		return ratio(v.nir-v.green, v.green-v.nir)
	}},
	{name: "AVI", needs: []string{BandNIR, BandRed}, legacy: true, fn: func(v bandValues) (float64, bool) {
		p := v.nir * (1 - v.red) * (v.nir - v.red)
		if p < 0 {
			return 0, false
		}
		return math.Cbrt(p), true
	}},
}

func gcvi(v bandValues) (float64, bool) {
	r, ok := ratio(v.nir, v.green)
	if !ok {
		return 0, false
	}
	return r - 1, true
}

// IndexNames returns the derived band names the given sensor emits, in
// output order.
func IndexNames(s Sensor) []string {
	var names []string
	for _, def := range indexBattery {
		if def.legacy && !s.Legacy {
			continue
		}
		names = append(names, def.name)
	}
	return names
}

// FeatureBands returns the full per-pixel feature vector layout for a
// sensor: reflectance bands, indices, then terrain bands. Sampling and
// classification both rely on this ordering.
func FeatureBands(s Sensor) []string {
	names := make([]string, 0, len(reflectanceBands)+len(indexBattery)+2)
	names = append(names, reflectanceBands...)
	names = append(names, IndexNames(s)...)
	names = append(names, BandElevation, BandSlope)
	return names
}
