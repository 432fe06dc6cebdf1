// Package pipeline orchestrates one end-to-end study run: scene
// discovery, per-scene preparation, temporal compositing, feature
// enrichment, classification and area tabulation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaronalt/gcc-lulc/internal/area"
	"github.com/aaronalt/gcc-lulc/internal/catalog"
	"github.com/aaronalt/gcc-lulc/internal/classify"
	"github.com/aaronalt/gcc-lulc/internal/raster"
	"github.com/aaronalt/gcc-lulc/internal/spectral"
)

var ErrNoModel = errors.New("no classifier model configured")

// Request describes one run.
type Request struct {
	AOI        string
	Sensor     string
	Collection string
	Start      *time.Time
	End        *time.Time
	BBox       []float64
}

// Result carries a finished run's products.
type Result struct {
	Composite  *raster.Image
	Enriched   *raster.Image
	Classified *raster.Grid
	Areas      []area.ClassArea
	SceneCount int
}

// Options tune the runner.
type Options struct {
	MaxCloudCover float64
	MaxScenes     int
	CellSize      float64
}

// Runner wires the pipeline stages together. Model and Elevation may be
// nil for composite-only use; Run requires both.
type Runner struct {
	source    catalog.SceneSource
	loader    *catalog.Loader
	model     *classify.Model
	elevation *raster.Grid
	opts      Options
	logger    *slog.Logger
}

// NewRunner creates a runner over the given scene source.
func NewRunner(source catalog.SceneSource, loader *catalog.Loader, opts Options) *Runner {
	if opts.MaxScenes <= 0 {
		opts.MaxScenes = 24
	}
	return &Runner{
		source: source,
		loader: loader,
		opts:   opts,
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the runner.
func (r *Runner) WithLogger(logger *slog.Logger) *Runner {
	r.logger = logger
	return r
}

// WithModel attaches the trained classifier.
func (r *Runner) WithModel(m *classify.Model) *Runner {
	r.model = m
	return r
}

// WithElevation attaches the elevation model shared by all runs.
func (r *Runner) WithElevation(elev *raster.Grid) *Runner {
	r.elevation = elev
	return r
}

// Composite searches for scenes, prepares each one for its sensor and
// reduces them to a temporal median composite.
func (r *Runner) Composite(ctx context.Context, req Request) (*raster.Image, int, error) {
	sensor, err := spectral.SensorByName(req.Sensor)
	if err != nil {
		return nil, 0, err
	}

	scenes, err := r.source.Search(ctx, catalog.SearchParams{
		Collection:    req.Collection,
		Start:         req.Start,
		End:           req.End,
		BBox:          req.BBox,
		MaxCloudCover: r.opts.MaxCloudCover,
		Limit:         r.opts.MaxScenes,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scene search failed: %w", err)
	}
	if len(scenes) == 0 {
		return nil, 0, raster.ErrNoScenes
	}

	r.logger.InfoContext(ctx, "compositing scenes",
		slog.String("aoi", req.AOI),
		slog.String("sensor", sensor.Name),
		slog.Int("scene_count", len(scenes)),
	)

	prepared := make([]*raster.Image, 0, len(scenes))
	for _, scene := range scenes {
		im, err := r.loader.LoadScene(ctx, scene, sensor.SourceBands(), sensor.QABand)
		if err != nil {
			return nil, 0, err
		}
		p, err := sensor.PrepareScene(im)
		if err != nil {
			return nil, 0, fmt.Errorf("scene %s: %w", scene.ID, err)
		}
		prepared = append(prepared, p)
	}

	composite, err := raster.MedianComposite(prepared)
	if err != nil {
		return nil, 0, err
	}
	return composite, len(prepared), nil
}

// Enrich appends the index battery, elevation and slope to a composite.
func (r *Runner) Enrich(composite *raster.Image, sensorName string) (*raster.Image, error) {
	sensor, err := spectral.SensorByName(sensorName)
	if err != nil {
		return nil, err
	}
	return spectral.Enrich(composite, r.elevation, sensor)
}

// Run executes the full pipeline and tabulates per-class areas.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if r.model == nil {
		return nil, ErrNoModel
	}

	composite, sceneCount, err := r.Composite(ctx, req)
	if err != nil {
		return nil, err
	}

	enriched, err := r.Enrich(composite, req.Sensor)
	if err != nil {
		return nil, err
	}

	classified, err := r.model.ClassifyImage(enriched)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Composite:  composite,
		Enriched:   enriched,
		Classified: classified,
		Areas:      area.Tabulate(classified, r.opts.CellSize),
		SceneCount: sceneCount,
	}

	r.logger.InfoContext(ctx, "run completed",
		slog.String("aoi", req.AOI),
		slog.Int("scene_count", sceneCount),
		slog.Int("classes", len(result.Areas)),
	)
	return result, nil
}
