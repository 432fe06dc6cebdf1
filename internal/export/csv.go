// Package export persists pipeline products: CSV tables for training
// rows, class areas and correlation matrices, plus classified-grid
// TIFF and colored PNG output.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/aaronalt/gcc-lulc/internal/area"
	"github.com/aaronalt/gcc-lulc/internal/sample"
	"github.com/aaronalt/gcc-lulc/internal/stats"
)

// WriteSampleCSV writes training rows as CSV with a class column
// followed by one column per feature band.
func WriteSampleCSV(w io.Writer, set *sample.Set) error {
	cw := csv.NewWriter(w)

	header := append([]string{"class"}, set.Bands...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range set.Rows {
		record[0] = strconv.Itoa(row.Class)
		for i, v := range row.Values {
			record[i+1] = formatFloat(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteAreaCSV writes the per-class area table as CSV.
func WriteAreaCSV(w io.Writer, rows []area.ClassArea) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"class", "name", "pixels", "hectares", "percent"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Class),
			row.Name,
			strconv.Itoa(row.Pixels),
			formatFloat(row.Hectares),
			formatFloat(row.Percent),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCorrelationCSV writes the band correlation matrix as CSV with
// band names on both axes.
func WriteCorrelationCSV(w io.Writer, m *stats.Matrix) error {
	cw := csv.NewWriter(w)

	header := append([]string{""}, m.Bands...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, band := range m.Bands {
		record := make([]string, len(m.Bands)+1)
		record[0] = band
		for j, v := range m.Values[i] {
			record[j+1] = formatFloat(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
