// Package server provides a public API for embedding the land-cover
// pipeline service in another application.
package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aaronalt/gcc-lulc/internal/api"
	"github.com/aaronalt/gcc-lulc/internal/catalog"
	"github.com/aaronalt/gcc-lulc/internal/classify"
	"github.com/aaronalt/gcc-lulc/internal/pipeline"
	"github.com/aaronalt/gcc-lulc/internal/raster"
	"github.com/aaronalt/gcc-lulc/internal/store"
)

// SourceType specifies which scene catalog to search.
type SourceType string

const (
	// SourceSTAC searches a remote STAC API for scenes.
	SourceSTAC SourceType = "stac"
	// SourceDir searches a local directory tree of scene folders.
	SourceDir SourceType = "dir"
)

// Options configures the land-cover server.
type Options struct {
	// Source specifies which scene catalog to use.
	// Default: SourceDir
	Source SourceType

	// STACURL is the remote STAC API root, used when Source is SourceSTAC.
	// Default: "https://landsatlook.usgs.gov/stac-server"
	STACURL string

	// SceneDir is the local scene directory, used when Source is SourceDir.
	// Default: "data/scenes"
	SceneDir string

	// Timeout is the upstream catalog request timeout.
	// Default: 30s
	Timeout time.Duration

	// CacheTTL controls the search result cache. Zero disables caching.
	CacheTTL time.Duration

	// DatabasePath is the SQLite run database location.
	// Default: "data/runs.db"
	DatabasePath string

	// ModelPath is the trained classifier model to serve. Optional; run
	// requests fail until a model is available.
	ModelPath string

	// ElevationTIF is the elevation raster shared by all runs. Optional.
	ElevationTIF string

	// CellSize is the grid cell size in metres.
	// Default: 30
	CellSize float64

	// MaxCloudCover filters catalog searches, in percent.
	// Default: 30
	MaxCloudCover float64

	// MaxScenes caps how many scenes feed one composite.
	// Default: 24
	MaxScenes int

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is a land-cover pipeline server that can be embedded in another
// application.
type Server struct {
	router chi.Router
	store  *store.Store
	cache  *catalog.CachingSource
}

// New creates a new land-cover server with the given options.
func New(opts Options) (*Server, error) {
	// Apply defaults
	if opts.Source == "" {
		opts.Source = SourceDir
	}
	if opts.STACURL == "" {
		opts.STACURL = "https://landsatlook.usgs.gov/stac-server"
	}
	if opts.SceneDir == "" {
		opts.SceneDir = "data/scenes"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.DatabasePath == "" {
		opts.DatabasePath = "data/runs.db"
	}
	if opts.CellSize == 0 {
		opts.CellSize = 30
	}
	if opts.MaxCloudCover == 0 {
		opts.MaxCloudCover = 30
	}
	if opts.MaxScenes == 0 {
		opts.MaxScenes = 24
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	// Create scene source
	var source catalog.SceneSource
	switch opts.Source {
	case SourceSTAC:
		source = catalog.NewClient(opts.STACURL, opts.Timeout).WithLogger(opts.Logger)
		opts.Logger.Info("using STAC scene source", "base_url", opts.STACURL)
	case SourceDir:
		source = catalog.NewDirSource(opts.SceneDir).WithLogger(opts.Logger)
		opts.Logger.Info("using directory scene source", "scene_dir", opts.SceneDir)
	default:
		return nil, fmt.Errorf("unknown scene source %q", opts.Source)
	}

	var cache *catalog.CachingSource
	if opts.CacheTTL > 0 {
		cache = catalog.NewCachingSource(source, opts.CacheTTL, opts.CacheTTL/2)
		source = cache
	}

	// Open the run store
	st, err := store.Open(opts.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	loader := catalog.NewLoader(raster.Georef{CellSize: opts.CellSize}).WithLogger(opts.Logger)

	runner := pipeline.NewRunner(source, loader, pipeline.Options{
		MaxCloudCover: opts.MaxCloudCover,
		MaxScenes:     opts.MaxScenes,
		CellSize:      opts.CellSize,
	}).WithLogger(opts.Logger)

	if opts.ModelPath != "" {
		model, err := classify.Load(opts.ModelPath)
		if err != nil {
			opts.Logger.Warn("failed to load classifier model, run requests will fail",
				"path", opts.ModelPath,
				"error", err,
			)
		} else {
			runner.WithModel(model)
			opts.Logger.Info("classifier model loaded",
				"path", opts.ModelPath,
				"bands", len(model.Bands),
				"prototypes", len(model.Prototypes),
			)
		}
	}

	if opts.ElevationTIF != "" {
		elev, err := raster.ReadBandFile(opts.ElevationTIF, raster.BandFileOptions{})
		if err != nil {
			opts.Logger.Warn("failed to load elevation raster, run requests will fail",
				"path", opts.ElevationTIF,
				"error", err,
			)
		} else {
			runner.WithElevation(elev)
		}
	}

	// Create handlers and router
	handlers := api.NewHandlers(st, runner, opts.Logger)
	router := api.NewRouter(handlers, opts.Logger)

	return &Server{
		router: router,
		store:  st,
		cache:  cache,
	}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}

// Close stops background goroutines and releases the run store.
func (s *Server) Close() error {
	if s.cache != nil {
		s.cache.Stop()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
