package classes

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	legendSwatch  = 18
	legendPadding = 8
	legendRowGap  = 6
	legendWidth   = 180
)

// RenderLegend draws the class legend: one color swatch and label per
// class, on a white background.
func RenderLegend() *image.RGBA {
	rowH := legendSwatch + legendRowGap
	h := legendPadding*2 + rowH*len(All) - legendRowGap
	img := image.NewRGBA(image.Rect(0, 0, legendWidth, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	for i, c := range All {
		top := legendPadding + i*rowH
		swatch := image.Rect(legendPadding, top, legendPadding+legendSwatch, top+legendSwatch)
		draw.Draw(img, swatch, image.NewUniform(c.Color()), image.Point{}, draw.Src)

		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.Black),
			Face: face,
			Dot: fixed.Point26_6{
				X: fixed.I(legendPadding*2 + legendSwatch),
				Y: fixed.I(top + legendSwatch/2 + face.Height/2 - 2),
			},
		}
		d.DrawString(fmt.Sprintf("%d  %s", c.Value, c.Name))
	}
	return img
}

// WriteLegendPNG renders the legend and encodes it as PNG.
func WriteLegendPNG(w io.Writer) error {
	if err := png.Encode(w, RenderLegend()); err != nil {
		return fmt.Errorf("failed to encode legend: %w", err)
	}
	return nil
}
