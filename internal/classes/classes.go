// Package classes defines the land-cover legend: the fixed mapping from
// class value to name and display color. The table is defined once and
// read-only thereafter.
package classes

import "image/color"

// Class is one land-cover category.
type Class struct {
	// Value is the small positive integer stored in classified rasters.
	Value int `json:"value"`
	// Name is the fixed human-readable label.
	Name string `json:"name"`
	// Hex is the display color as #rrggbb.
	Hex string `json:"color"`
}

// All lists the eight study classes in value order.
var All = []Class{
	{Value: 1, Name: "Mangrove", Hex: "#0b6623"},
	{Value: 2, Name: "Agriculture", Hex: "#e4cd05"},
	{Value: 3, Name: "DenseVeg", Hex: "#228b22"},
	{Value: 4, Name: "SparseVeg", Hex: "#9acd32"},
	{Value: 5, Name: "UrbanGreen", Hex: "#66cdaa"},
	{Value: 6, Name: "Bare", Hex: "#d2b48c"},
	{Value: 7, Name: "Artificial", Hex: "#b22222"},
	{Value: 8, Name: "Water", Hex: "#1e90ff"},
}

var byValue = func() map[int]Class {
	m := make(map[int]Class, len(All))
	for _, c := range All {
		m[c.Value] = c
	}
	return m
}()

// ByValue returns the class for a raster value.
func ByValue(v int) (Class, bool) {
	c, ok := byValue[v]
	return c, ok
}

// ByName returns the class with the given label.
func ByName(name string) (Class, bool) {
	for _, c := range All {
		if c.Name == name {
			return c, true
		}
	}
	return Class{}, false
}

// Color decodes the class display color.
func (c Class) Color() color.RGBA {
	hexVal := func(b byte) uint8 {
		switch {
		case b >= '0' && b <= '9':
			return b - '0'
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10
		}
		return 0
	}
	h := c.Hex
	if len(h) != 7 || h[0] != '#' {
		return color.RGBA{A: 255}
	}
	return color.RGBA{
		R: hexVal(h[1])<<4 | hexVal(h[2]),
		G: hexVal(h[3])<<4 | hexVal(h[4]),
		B: hexVal(h[5])<<4 | hexVal(h[6]),
		A: 255,
	}
}
