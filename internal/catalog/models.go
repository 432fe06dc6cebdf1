// Package catalog provides scene discovery for the pipeline: a remote
// STAC API client and a local directory source behind one interface,
// with an optional TTL cache.
package catalog

import (
	"context"
	"fmt"
	"time"

	gostac "github.com/planetlabs/go-stac"
)

// Re-export the STAC types the catalog works with.
type (
	Item  = gostac.Item
	Asset = gostac.Asset
	Link  = gostac.Link
)

// Scene is one acquisition the pipeline can load: band name → file
// location plus the metadata the search filtered on.
type Scene struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	AcquiredAt time.Time         `json:"acquired_at"`
	CloudCover float64           `json:"cloud_cover"`
	// BandPaths maps source band names (e.g. SR_B4, QA_PIXEL) to local
	// paths or hrefs.
	BandPaths map[string]string `json:"band_paths"`
}

// SearchParams filter a scene search. Zero values mean "no filter"
// except Limit, which falls back to the source default.
type SearchParams struct {
	// Collection is the catalog collection ID (required).
	Collection string

	// Temporal filters (inclusive).
	Start *time.Time
	End   *time.Time

	// BBox is [west, south, east, north] in lon/lat.
	BBox []float64

	// MaxCloudCover excludes scenes above this percentage. Negative
	// means no cloud filter.
	MaxCloudCover float64

	// Limit caps the number of scenes returned.
	Limit int
}

// parseSceneTime accepts RFC3339 timestamps or bare dates.
func parseSceneTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad acquisition time %q: %w", raw, err)
	}
	return t.UTC(), nil
}

// SceneSource is the search boundary the pipeline consumes scenes
// through. Both the remote STAC client and the local directory source
// implement it.
type SceneSource interface {
	// Search returns scenes matching the params, newest first.
	Search(ctx context.Context, params SearchParams) ([]Scene, error)

	// Name returns the source name (e.g. "stac", "dir").
	Name() string
}
