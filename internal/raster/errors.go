package raster

import "errors"

var (
	// ErrShapeMismatch indicates grids or images with different shapes
	// were combined.
	ErrShapeMismatch = errors.New("raster: grid shape mismatch")
	// ErrBandExists indicates an attempt to replace an existing band.
	ErrBandExists = errors.New("raster: band already present")
	// ErrNoBand indicates a required band is missing from an image.
	ErrNoBand = errors.New("raster: band not found")
	// ErrNoScenes indicates a composite was requested over zero scenes.
	ErrNoScenes = errors.New("raster: no scenes to composite")
	// ErrUnsupportedTIFF indicates a TIFF with a pixel format the
	// pipeline cannot consume.
	ErrUnsupportedTIFF = errors.New("raster: unsupported tiff pixel format")
)
