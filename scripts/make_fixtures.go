// Script to generate a synthetic Landsat-style scene archive for local
// development: scene folders with band TIFFs and scene.json metadata,
// an elevation raster and labeled training points.
package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/tiff"
)

const (
	width  = 64
	height = 64

	// Collection 2 surface reflectance inverse scaling: DN for a given
	// reflectance is (r + 0.2) / 2.75e-05.
	srScale  = 2.75e-05
	srOffset = -0.2
)

var bands = []string{"SR_B2", "SR_B3", "SR_B4", "SR_B5", "SR_B6", "SR_B7"}

// reflectances per region, keyed by band. The left half of each scene
// looks like open water, the right half like dense vegetation.
var water = map[string]float64{
	"SR_B2": 0.08, "SR_B3": 0.06, "SR_B4": 0.04,
	"SR_B5": 0.02, "SR_B6": 0.01, "SR_B7": 0.01,
}
var vegetation = map[string]float64{
	"SR_B2": 0.04, "SR_B3": 0.06, "SR_B4": 0.05,
	"SR_B5": 0.45, "SR_B6": 0.20, "SR_B7": 0.10,
}

func main() {
	root := "data/scenes"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	dates := []time.Time{
		time.Date(2024, 1, 10, 16, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 26, 16, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 11, 16, 0, 0, 0, time.UTC),
	}

	for i, date := range dates {
		id := fmt.Sprintf("synthetic-%03d", i+1)
		dir := filepath.Join(root, id)
		if err := writeScene(dir, id, date); err != nil {
			fmt.Fprintf(os.Stderr, "scene %s failed: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("wrote scene %s\n", dir)
	}

	if err := writeElevation("data/elevation.tif"); err != nil {
		fmt.Fprintf(os.Stderr, "elevation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote data/elevation.tif")

	if err := writeTraining("data/training.geojson"); err != nil {
		fmt.Fprintf(os.Stderr, "training data failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote data/training.geojson")
}

func dn(reflectance float64) uint16 {
	return uint16((reflectance - srOffset) / srScale)
}

func writeScene(dir, id string, date time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	meta := map[string]any{
		"id":          id,
		"collection":  "landsat-c2l2-sr",
		"acquired_at": date.Format(time.RFC3339),
		"cloud_cover": 5.0,
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "scene.json"), raw, 0o644); err != nil {
		return err
	}

	for _, band := range bands {
		img := image.NewGray16(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r := water[band]
				if x >= width/2 {
					r = vegetation[band]
				}
				img.SetGray16(x, y, color.Gray16{Y: dn(r)})
			}
		}
		if err := writeTIFF(filepath.Join(dir, band+".tif"), img); err != nil {
			return err
		}
	}

	// Every pixel clear (bit 6 set, no cloud bits).
	qa := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			qa.SetGray16(x, y, color.Gray16{Y: 1 << 6})
		}
	}
	return writeTIFF(filepath.Join(dir, "QA_PIXEL.tif"), qa)
}

func writeElevation(path string) error {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Gentle eastward rise from sea level.
			img.SetGray16(x, y, color.Gray16{Y: uint16(x / 4)})
		}
	}
	return writeTIFF(path, img)
}

func writeTraining(path string) error {
	type feature struct {
		Type       string         `json:"type"`
		Geometry   map[string]any `json:"geometry"`
		Properties map[string]any `json:"properties"`
	}

	point := func(class int, x, y float64) feature {
		return feature{
			Type: "Feature",
			Geometry: map[string]any{
				"type":        "Point",
				"coordinates": []float64{x, y},
			},
			Properties: map[string]any{"class": class},
		}
	}

	var features []feature
	// Scene georef has origin (0,0) with 30 m cells, so water points sit
	// in the left half and vegetation points in the right half.
	for i := 0; i < 8; i++ {
		features = append(features, point(8, float64(100+i*50), float64(-200-i*100)))
		features = append(features, point(3, float64(1100+i*50), float64(-200-i*100)))
	}

	fc := map[string]any{"type": "FeatureCollection", "features": features}
	raw, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func writeTIFF(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
}
