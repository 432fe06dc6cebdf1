package raster

import "sort"

// MedianComposite reduces a stack of co-registered scenes to a single
// image by taking, per pixel and band, the median of the valid samples.
// Masked pixels are absent from the reduction, never zero. A composite
// pixel is invalid only where no scene contributed. All scenes must
// share shape and band set; bands are taken from the first scene's
// order.
func MedianComposite(scenes []*Image) (*Image, error) {
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	first := scenes[0]
	for _, s := range scenes[1:] {
		if s.W != first.W || s.H != first.H {
			return nil, ErrShapeMismatch
		}
	}
	out := NewImage(first.W, first.H, first.Ref)
	samples := make([]float64, 0, len(scenes))
	for _, name := range first.order {
		comp := NewGrid(first.W, first.H)
		grids := make([]*Grid, 0, len(scenes))
		for _, s := range scenes {
			g, ok := s.Band(name)
			if !ok {
				return nil, ErrNoBand
			}
			grids = append(grids, g)
		}
		for y := 0; y < first.H; y++ {
			for x := 0; x < first.W; x++ {
				samples = samples[:0]
				for _, g := range grids {
					if v, ok := g.At(x, y); ok {
						samples = append(samples, v)
					}
				}
				if len(samples) > 0 {
					comp.Set(x, y, median(samples))
				}
			}
		}
		out.AddBand(name, comp)
	}
	return out, nil
}

// median mutates its argument by sorting it.
func median(v []float64) float64 {
	sort.Float64s(v)
	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}
