// Package area tabulates per-class pixel counts and ground areas from a
// classified grid.
package area

import (
	"sort"

	"github.com/aaronalt/gcc-lulc/internal/classes"
	"github.com/aaronalt/gcc-lulc/internal/raster"
)

// ClassArea is one row of the area table.
type ClassArea struct {
	Class    int     `json:"class"`
	Name     string  `json:"name"`
	Pixels   int     `json:"pixels"`
	Hectares float64 `json:"hectares"`
	Percent  float64 `json:"percent"`
}

// Tabulate counts classified pixels per class and converts them to
// hectares using the cell size in metres. Masked pixels are absent from
// the tabulation, never counted as any class. Percent is relative to
// the classified (valid) pixels only.
func Tabulate(classified *raster.Grid, cellSize float64) []ClassArea {
	counts := make(map[int]int)
	total := 0
	for y := 0; y < classified.H; y++ {
		for x := 0; x < classified.W; x++ {
			v, ok := classified.At(x, y)
			if !ok {
				continue
			}
			counts[int(v)]++
			total++
		}
	}

	cellHectares := cellSize * cellSize / 10000

	rows := make([]ClassArea, 0, len(counts))
	for value, n := range counts {
		row := ClassArea{
			Class:    value,
			Pixels:   n,
			Hectares: float64(n) * cellHectares,
		}
		if c, ok := classes.ByValue(value); ok {
			row.Name = c.Name
		}
		if total > 0 {
			row.Percent = 100 * float64(n) / float64(total)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Class < rows[j].Class })
	return rows
}
