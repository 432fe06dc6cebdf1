// Package stats computes summary statistics over enriched images, in
// particular the Pearson correlation matrix between index bands.
package stats

import (
	"errors"
	"fmt"

	mstats "github.com/montanaflynn/stats"

	"github.com/aaronalt/gcc-lulc/internal/raster"
)

var ErrTooFewBands = errors.New("correlation needs at least two bands")

// Matrix is a symmetric band-by-band correlation matrix. Values[i][j]
// is the Pearson correlation between Bands[i] and Bands[j] over the
// pixels where both bands are valid.
type Matrix struct {
	Bands  []string    `json:"bands"`
	Values [][]float64 `json:"values"`
}

// Correlation computes the pairwise Pearson correlation of the named
// bands. Masked pixels are excluded pairwise, so each pair uses the
// largest common valid set.
func Correlation(im *raster.Image, bands []string) (*Matrix, error) {
	if len(bands) < 2 {
		return nil, ErrTooFewBands
	}

	grids := make([]*raster.Grid, len(bands))
	for i, name := range bands {
		g, ok := im.Band(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", raster.ErrNoBand, name)
		}
		grids[i] = g
	}

	m := &Matrix{Bands: bands, Values: make([][]float64, len(bands))}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(bands))
		m.Values[i][i] = 1
	}

	for i := 0; i < len(grids); i++ {
		for j := i + 1; j < len(grids); j++ {
			r, err := pairCorrelation(grids[i], grids[j])
			if err != nil {
				return nil, fmt.Errorf("correlation %s/%s: %w", bands[i], bands[j], err)
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m, nil
}

func pairCorrelation(a, b *raster.Grid) (float64, error) {
	var xs, ys []float64
	for y := 0; y < a.H; y++ {
		for x := 0; x < a.W; x++ {
			av, aok := a.At(x, y)
			bv, bok := b.At(x, y)
			if !aok || !bok {
				continue
			}
			xs = append(xs, av)
			ys = append(ys, bv)
		}
	}
	if len(xs) < 2 {
		return 0, fmt.Errorf("only %d shared valid pixels", len(xs))
	}
	return mstats.Pearson(xs, ys)
}
