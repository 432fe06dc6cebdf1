package spectral

import (
	"math"

	"github.com/aaronalt/gcc-lulc/internal/raster"
)

// Slope derives terrain slope in degrees from an elevation grid using
// Horn's 3×3 finite-difference operator. This is the pipeline's only
// spatial derivation besides gap filling; it is computed once from the
// elevation model and attached identically for every sensor. Border
// neighbours are clamped to the grid edge. A pixel is valid only when
// all clamped neighbours are valid.
func Slope(elev *raster.Grid, cellSize float64) *raster.Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	out := raster.NewGrid(elev.W, elev.H)

	at := func(x, y int) (float64, bool) {
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		if x >= elev.W {
			x = elev.W - 1
		}
		if y >= elev.H {
			y = elev.H - 1
		}
		return elev.At(x, y)
	}

	for y := 0; y < elev.H; y++ {
		for x := 0; x < elev.W; x++ {
			var z [3][3]float64
			ok := true
			for dy := -1; dy <= 1 && ok; dy++ {
				for dx := -1; dx <= 1; dx++ {
					v, valid := at(x+dx, y+dy)
					if !valid {
						ok = false
						break
					}
					z[dy+1][dx+1] = v
				}
			}
			if !ok {
				continue
			}
			dzdx := ((z[0][2] + 2*z[1][2] + z[2][2]) - (z[0][0] + 2*z[1][0] + z[2][0])) / (8 * cellSize)
			dzdy := ((z[2][0] + 2*z[2][1] + z[2][2]) - (z[0][0] + 2*z[0][1] + z[0][2])) / (8 * cellSize)
			rise := math.Sqrt(dzdx*dzdx + dzdy*dzdy)
			out.Set(x, y, math.Atan(rise)*180/math.Pi)
		}
	}
	return out
}
