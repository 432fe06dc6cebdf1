// Package raster provides the in-memory data model for gridded imagery:
// single-band grids with per-pixel validity, multi-band images, QA-driven
// cloud masking, scan-line gap filling and temporal compositing.
package raster

import "math"

// Georef ties a grid to ground coordinates. Only the pieces the pipeline
// needs are carried: an origin (upper-left corner) and a square cell size
// in metres. Reprojection is out of scope; all inputs to one run must
// already share a common grid.
type Georef struct {
	OriginX  float64
	OriginY  float64
	CellSize float64
}

// PixelAt maps a ground coordinate to the pixel containing it. The grid
// is north-up: rows grow southward from the origin.
func (r Georef) PixelAt(x, y float64) (col, row int) {
	col = int(math.Floor((x - r.OriginX) / r.CellSize))
	row = int(math.Floor((r.OriginY - y) / r.CellSize))
	return col, row
}

// CellCenter returns the ground coordinate of a pixel's center.
func (r Georef) CellCenter(col, row int) (x, y float64) {
	x = r.OriginX + (float64(col)+0.5)*r.CellSize
	y = r.OriginY - (float64(row)+0.5)*r.CellSize
	return x, y
}

// Grid is a single raster band: W×H float64 samples plus a parallel
// validity flag per pixel. A masked (invalid) pixel keeps its underlying
// sample value; aggregations must treat it as absent, never as zero.
type Grid struct {
	W, H  int
	data  []float64
	valid []bool
}

// NewGrid creates a grid of the given shape with every pixel invalid.
func NewGrid(w, h int) *Grid {
	return &Grid{
		W:     w,
		H:     h,
		data:  make([]float64, w*h),
		valid: make([]bool, w*h),
	}
}

// At returns the sample value and validity at (x, y).
func (g *Grid) At(x, y int) (float64, bool) {
	i := y*g.W + x
	return g.data[i], g.valid[i]
}

// Set stores a sample value at (x, y) and marks the pixel valid.
// NaN and infinite values mark the pixel invalid instead, so per-pixel
// arithmetic can store its result unconditionally and rely on the edge
// policy: an undefined operand invalidates that band/pixel only.
func (g *Grid) Set(x, y int, v float64) {
	i := y*g.W + x
	if math.IsNaN(v) || math.IsInf(v, 0) {
		g.data[i] = 0
		g.valid[i] = false
		return
	}
	g.data[i] = v
	g.valid[i] = true
}

// SetInvalid marks the pixel at (x, y) invalid without touching its value.
func (g *Grid) SetInvalid(x, y int) {
	g.valid[y*g.W+x] = false
}

// Valid reports whether the pixel at (x, y) is valid.
func (g *Grid) Valid(x, y int) bool {
	return g.valid[y*g.W+x]
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.W, g.H)
	copy(c.data, g.data)
	copy(c.valid, g.valid)
	return c
}

// ValidCount returns the number of valid pixels.
func (g *Grid) ValidCount() int {
	n := 0
	for _, ok := range g.valid {
		if ok {
			n++
		}
	}
	return n
}

// Fill sets every pixel to v and marks it valid.
func (g *Grid) Fill(v float64) {
	for i := range g.data {
		g.data[i] = v
		g.valid[i] = true
	}
}

// MapPixels builds a new grid by applying f to every valid pixel of g.
// Invalid input pixels stay invalid in the result.
func (g *Grid) MapPixels(f func(v float64) float64) *Grid {
	out := NewGrid(g.W, g.H)
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if v, ok := g.At(x, y); ok {
				out.Set(x, y, f(v))
			}
		}
	}
	return out
}
