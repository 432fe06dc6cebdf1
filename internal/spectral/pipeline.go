package spectral

import (
	"fmt"

	"github.com/aaronalt/gcc-lulc/internal/raster"
)

// Enrich appends the sensor's index battery plus elevation and slope to
// a cloud-masked, canonicalized composite. Original bands are never
// replaced. Each index pixel is computed only where every band the
// formula reads is valid; an undefined result (division by zero,
// negative base under the cube root) invalidates that band/pixel alone,
// leaving sibling bands intact.
//
// The elevation grid must share the composite's shape; slope is derived
// from it with the image's cell size.
func Enrich(im *raster.Image, elev *raster.Grid, s Sensor) (*raster.Image, error) {
	for _, name := range reflectanceBands {
		if !im.Has(name) {
			return nil, fmt.Errorf("%w: %s (canonicalize the composite first)", ErrMissingBand, name)
		}
	}
	if elev.W != im.W || elev.H != im.H {
		return nil, raster.ErrShapeMismatch
	}

	out := im.Clone()
	src := make(map[string]*raster.Grid, len(reflectanceBands))
	for _, name := range reflectanceBands {
		g, _ := im.Band(name)
		src[name] = g
	}

	for _, def := range indexBattery {
		if def.legacy && !s.Legacy {
			continue
		}
		g := computeIndex(im, src, def)
		if err := out.AddBand(def.name, g); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", def.name, err)
		}
	}

	if err := out.AddBand(BandElevation, elev.Clone()); err != nil {
		return nil, fmt.Errorf("failed to attach elevation: %w", err)
	}
	if err := out.AddBand(BandSlope, Slope(elev, im.Ref.CellSize)); err != nil {
		return nil, fmt.Errorf("failed to attach slope: %w", err)
	}
	return out, nil
}

func computeIndex(im *raster.Image, src map[string]*raster.Grid, def indexDef) *raster.Grid {
	g := raster.NewGrid(im.W, im.H)
	for y := 0; y < im.H; y++ {
	pixels:
		for x := 0; x < im.W; x++ {
			for _, need := range def.needs {
				if !src[need].Valid(x, y) {
					continue pixels
				}
			}
			var v bandValues
			v.blue, _ = src[BandBlue].At(x, y)
			v.green, _ = src[BandGreen].At(x, y)
			v.red, _ = src[BandRed].At(x, y)
			v.nir, _ = src[BandNIR].At(x, y)
			v.swir1, _ = src[BandSwir1].At(x, y)
			v.swir2, _ = src[BandSwir2].At(x, y)
			if res, ok := def.fn(v); ok {
				g.Set(x, y, res)
			}
		}
	}
	return g
}
