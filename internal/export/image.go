package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/aaronalt/gcc-lulc/internal/classes"
	"github.com/aaronalt/gcc-lulc/internal/raster"
)

// WriteClassifiedTIFF writes a classified grid as an 8-bit grayscale
// TIFF of class values.
func WriteClassifiedTIFF(path string, g *raster.Grid) error {
	return raster.WriteClassTIFF(path, g)
}

// RenderClassified paints a classified grid with the class colors.
// Masked pixels come out transparent.
func RenderClassified(g *raster.Grid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.W, g.H))
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			v, ok := g.At(x, y)
			if !ok {
				continue
			}
			c, found := classes.ByValue(int(v))
			if !found {
				img.SetRGBA(x, y, color.RGBA{A: 255})
				continue
			}
			img.SetRGBA(x, y, c.Color())
		}
	}
	return img
}

// WriteClassifiedPNG renders a classified grid with class colors and
// encodes it as PNG.
func WriteClassifiedPNG(w io.Writer, g *raster.Grid) error {
	if err := png.Encode(w, RenderClassified(g)); err != nil {
		return fmt.Errorf("failed to encode classified png: %w", err)
	}
	return nil
}
