package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aaronalt/gcc-lulc/internal/raster"
)

// Landsat Collection 2 surface reflectance scaling.
const (
	srScale  = 2.75e-05
	srOffset = -0.2
)

// srNoData marks fill pixels in Collection 2 SR products.
var srNoData = 0.0

// Loader reads a scene's band files into a raster image. Reflectance
// bands are rescaled to [0,1] surface reflectance; the QA band is kept
// raw so bitmask tests still work.
type Loader struct {
	ref    raster.Georef
	logger *slog.Logger
}

// NewLoader creates a loader stamping ref onto every loaded image.
func NewLoader(ref raster.Georef) *Loader {
	return &Loader{ref: ref, logger: slog.Default()}
}

// WithLogger sets a custom logger for the loader.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	l.logger = logger
	return l
}

// LoadScene reads the named reflectance bands plus the QA band from the
// scene's band paths. Band names stay in source form; the sensor layer
// canonicalizes them afterwards.
func (l *Loader) LoadScene(ctx context.Context, scene Scene, bands []string, qaBand string) (*raster.Image, error) {
	var im *raster.Image

	add := func(name string, g *raster.Grid) error {
		if im == nil {
			im = raster.NewImage(g.W, g.H, l.ref)
		}
		return im.AddBand(name, g)
	}

	for _, band := range bands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, ok := scene.BandPaths[band]
		if !ok {
			return nil, fmt.Errorf("scene %s has no band %s", scene.ID, band)
		}
		g, err := raster.ReadBandFile(path, raster.BandFileOptions{
			Scale:  srScale,
			Offset: srOffset,
			NoData: &srNoData,
		})
		if err != nil {
			return nil, fmt.Errorf("scene %s band %s: %w", scene.ID, band, err)
		}
		if err := add(band, g); err != nil {
			return nil, fmt.Errorf("scene %s band %s: %w", scene.ID, band, err)
		}
	}

	if qaBand != "" {
		path, ok := scene.BandPaths[qaBand]
		if !ok {
			return nil, fmt.Errorf("scene %s has no QA band %s", scene.ID, qaBand)
		}
		g, err := raster.ReadBandFile(path, raster.BandFileOptions{})
		if err != nil {
			return nil, fmt.Errorf("scene %s band %s: %w", scene.ID, qaBand, err)
		}
		if err := add(qaBand, g); err != nil {
			return nil, fmt.Errorf("scene %s band %s: %w", scene.ID, qaBand, err)
		}
	}

	if im == nil {
		return nil, fmt.Errorf("scene %s: no bands requested", scene.ID)
	}

	l.logger.DebugContext(ctx, "scene loaded",
		slog.String("scene_id", scene.ID),
		slog.Int("band_count", im.NumBands()),
		slog.Int("width", im.W),
		slog.Int("height", im.H),
	)
	return im, nil
}
