package raster

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/tiff"
)

// BandFileOptions controls how raw TIFF samples become grid values.
type BandFileOptions struct {
	// Scale multiplies raw sample values (surface-reflectance products
	// store scaled integers). Zero means 1.0.
	Scale float64
	// Offset is added after scaling.
	Offset float64
	// NoData, when set, is a raw sample value marking missing pixels.
	NoData *float64
}

// ReadBandFile decodes a single-band TIFF into a grid. Grayscale 8- and
// 16-bit images are read directly; other integer formats go through the
// standard color model. Pixels equal to the NoData value are invalid.
func ReadBandFile(path string, opts BandFileOptions) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open band file: %w", err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return gridFromImage(img, opts)
}

func gridFromImage(img image.Image, opts BandFileOptions) (*Grid, error) {
	b := img.Bounds()
	g := NewGrid(b.Dx(), b.Dy())
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	raw := func(x, y int) float64 {
		switch im := img.(type) {
		case *image.Gray:
			return float64(im.GrayAt(x, y).Y)
		case *image.Gray16:
			return float64(im.Gray16At(x, y).Y)
		default:
			c := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			return float64(c.Y)
		}
	}

	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			v := raw(b.Min.X+x, b.Min.Y+y)
			if opts.NoData != nil && v == *opts.NoData {
				continue
			}
			g.Set(x, y, v*scale+opts.Offset)
		}
	}
	return g, nil
}

// WriteGridTIFF encodes a grid as a 16-bit grayscale TIFF. Values are
// divided by scale (the inverse of the read-side scale), clamped to the
// sample range, and invalid pixels are written as zero.
func WriteGridTIFF(path string, g *Grid, scale float64) error {
	if scale == 0 {
		scale = 1
	}
	out := image.NewGray16(image.Rect(0, 0, g.W, g.H))
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			v, ok := g.At(x, y)
			if !ok {
				continue
			}
			s := v / scale
			if s < 0 {
				s = 0
			}
			if s > 65535 {
				s = 65535
			}
			out.SetGray16(x, y, color.Gray16{Y: uint16(s + 0.5)})
		}
	}
	return writeTIFF(path, out)
}

// WriteClassTIFF encodes a grid of small integer class values as an
// 8-bit grayscale TIFF. Invalid pixels are written as zero.
func WriteClassTIFF(path string, g *Grid) error {
	out := image.NewGray(image.Rect(0, 0, g.W, g.H))
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if v, ok := g.At(x, y); ok && v > 0 && v < 256 {
				out.SetGray(x, y, color.Gray{Y: uint8(v)})
			}
		}
	}
	return writeTIFF(path, out)
}

func writeTIFF(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	opts := &tiff.Options{Compression: tiff.Deflate}
	if err := tiff.Encode(f, img, opts); err != nil {
		return fmt.Errorf("failed to encode tiff: %w", err)
	}
	return nil
}
