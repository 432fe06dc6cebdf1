package raster

// gapKernelRadius is the half-width of the square smoothing kernel used
// to fill scan-line gaps: 1.5 pixels, i.e. a 3×3 neighbourhood.
const gapKernelRadius = 1

// FillGaps returns a copy of g with invalid pixels replaced by the mean
// of their valid 3×3 neighbours. Blend semantics: pixels that were valid
// keep their original values, and an invalid pixel with no valid
// neighbour stays invalid. Used on the older sensor's striped scenes
// before temporal compositing so the composite is not biased by holes.
func FillGaps(g *Grid) *Grid {
	out := g.Clone()
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if g.Valid(x, y) {
				continue
			}
			sum, n := 0.0, 0
			for dy := -gapKernelRadius; dy <= gapKernelRadius; dy++ {
				for dx := -gapKernelRadius; dx <= gapKernelRadius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= g.W || ny >= g.H {
						continue
					}
					if v, ok := g.At(nx, ny); ok {
						sum += v
						n++
					}
				}
			}
			if n > 0 {
				out.Set(x, y, sum/float64(n))
			}
		}
	}
	return out
}

// FillImageGaps applies FillGaps to every band of im and returns a new
// image. Band order is preserved.
func FillImageGaps(im *Image) *Image {
	out := NewImage(im.W, im.H, im.Ref)
	for _, name := range im.order {
		// AddBand cannot fail here: shapes match and names are unique.
		out.AddBand(name, FillGaps(im.bands[name]))
	}
	return out
}
