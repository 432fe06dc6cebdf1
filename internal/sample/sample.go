// Package sample extracts labeled training rows from an enriched image
// at labeled point or polygon geometries.
package sample

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/aaronalt/gcc-lulc/internal/classes"
	"github.com/aaronalt/gcc-lulc/internal/raster"
)

var (
	ErrNoLabel     = errors.New("feature has no class label")
	ErrNoGeometry  = errors.New("feature has no geometry")
	ErrEmptySample = errors.New("no usable training rows")
)

// LabeledGeometry is one training geometry with its class value.
type LabeledGeometry struct {
	Class    int
	Geometry orb.Geometry
}

// Row is one training example: a class label and the feature values in
// band order.
type Row struct {
	Class  int
	Values []float64
}

// Set is an extracted sample: the band order shared by every row, plus
// the rows themselves.
type Set struct {
	Bands []string
	Rows  []Row
}

// ParseLabeledGeoJSON reads a GeoJSON feature collection of training
// geometries. Each feature carries its class either as a numeric
// "class" property or a "name" property matching the class table.
func ParseLabeledGeoJSON(data []byte) ([]LabeledGeometry, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse training geojson: %w", err)
	}

	labeled := make([]LabeledGeometry, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("feature %d: %w", i, ErrNoGeometry)
		}
		class, err := classFromProperties(f.Properties)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		labeled = append(labeled, LabeledGeometry{Class: class, Geometry: f.Geometry})
	}
	return labeled, nil
}

func classFromProperties(props geojson.Properties) (int, error) {
	if v, ok := props["class"]; ok {
		switch n := v.(type) {
		case float64:
			return validClass(int(n))
		case int:
			return validClass(n)
		}
	}
	if name, ok := props["name"].(string); ok {
		if c, found := classes.ByName(name); found {
			return c.Value, nil
		}
		return 0, fmt.Errorf("unknown class name %q: %w", name, ErrNoLabel)
	}
	return 0, ErrNoLabel
}

func validClass(v int) (int, error) {
	if _, ok := classes.ByValue(v); !ok {
		return 0, fmt.Errorf("class value %d out of range: %w", v, ErrNoLabel)
	}
	return v, nil
}

// Extract samples the named bands at every labeled geometry and returns
// the rows plus per-class row counts. Point geometries contribute the
// pixel containing them; polygon geometries contribute every pixel whose
// center falls inside. Pixels where any requested band is invalid are
// skipped, since the classifier needs complete vectors.
func Extract(im *raster.Image, bands []string, labels []LabeledGeometry) (*Set, map[int]int, error) {
	grids := make([]*raster.Grid, len(bands))
	for i, name := range bands {
		g, ok := im.Band(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", raster.ErrNoBand, name)
		}
		grids[i] = g
	}

	set := &Set{Bands: bands}
	counts := make(map[int]int)

	addPixel := func(class, col, row int) {
		if col < 0 || col >= im.W || row < 0 || row >= im.H {
			return
		}
		values := make([]float64, len(grids))
		for i, g := range grids {
			v, ok := g.At(col, row)
			if !ok {
				return
			}
			values[i] = v
		}
		set.Rows = append(set.Rows, Row{Class: class, Values: values})
		counts[class]++
	}

	for _, lg := range labels {
		switch geom := lg.Geometry.(type) {
		case orb.Point:
			col, row := im.Ref.PixelAt(geom.X(), geom.Y())
			addPixel(lg.Class, col, row)
		case orb.Polygon:
			forEachPixelInside(im, geom.Bound(), func(col, row int, pt orb.Point) {
				if planar.PolygonContains(geom, pt) {
					addPixel(lg.Class, col, row)
				}
			})
		case orb.MultiPolygon:
			forEachPixelInside(im, geom.Bound(), func(col, row int, pt orb.Point) {
				if planar.MultiPolygonContains(geom, pt) {
					addPixel(lg.Class, col, row)
				}
			})
		default:
			return nil, nil, fmt.Errorf("unsupported training geometry %T", geom)
		}
	}

	if len(set.Rows) == 0 {
		return nil, nil, ErrEmptySample
	}
	return set, counts, nil
}

// forEachPixelInside visits every pixel whose center lies within bound,
// clamped to the image.
func forEachPixelInside(im *raster.Image, bound orb.Bound, visit func(col, row int, pt orb.Point)) {
	minCol, minRow := im.Ref.PixelAt(bound.Min.X(), bound.Max.Y())
	maxCol, maxRow := im.Ref.PixelAt(bound.Max.X(), bound.Min.Y())

	minCol = clamp(minCol, 0, im.W-1)
	maxCol = clamp(maxCol, 0, im.W-1)
	minRow = clamp(minRow, 0, im.H-1)
	maxRow = clamp(maxRow, 0, im.H-1)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			x, y := im.Ref.CellCenter(col, row)
			visit(col, row, orb.Point{x, y})
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Split partitions the rows into train and test sets by taking every
// n-th row for testing. A deterministic split keeps evaluation
// reproducible across runs.
func (s *Set) Split(testFraction float64) (train, test *Set) {
	train = &Set{Bands: s.Bands}
	test = &Set{Bands: s.Bands}
	if testFraction <= 0 {
		train.Rows = s.Rows
		return train, test
	}
	stride := int(math.Round(1 / testFraction))
	if stride < 2 {
		stride = 2
	}
	for i, row := range s.Rows {
		if i%stride == stride-1 {
			test.Rows = append(test.Rows, row)
		} else {
			train.Rows = append(train.Rows, row)
		}
	}
	return train, test
}
