package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client searches a remote STAC API for scenes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a STAC API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// Name implements SceneSource.
func (c *Client) Name() string { return "stac" }

// searchRequest is the STAC API item-search body.
type searchRequest struct {
	Collections []string        `json:"collections,omitempty"`
	Datetime    string          `json:"datetime,omitempty"`
	BBox        []float64       `json:"bbox,omitempty"`
	Limit       int             `json:"limit,omitempty"`
	Query       map[string]any  `json:"query,omitempty"`
	SortBy      []sortSpec      `json:"sortby,omitempty"`
}

type sortSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// itemCollection is the STAC search response envelope.
type itemCollection struct {
	Type     string  `json:"type"`
	Features []*Item `json:"features"`
}

// Search implements SceneSource against the remote STAC API.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Scene, error) {
	body := searchRequest{
		Collections: []string{params.Collection},
		BBox:        params.BBox,
		Limit:       params.Limit,
		SortBy:      []sortSpec{{Field: "properties.datetime", Direction: "desc"}},
	}
	if params.Start != nil || params.End != nil {
		body.Datetime = datetimeInterval(params.Start, params.End)
	}
	if params.MaxCloudCover >= 0 {
		body.Query = map[string]any{
			"eo:cloud_cover": map[string]any{"lt": params.MaxCloudCover},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	searchURL := c.baseURL + "/search"
	c.logger.DebugContext(ctx, "executing STAC search",
		slog.String("url", searchURL),
		slog.String("collection", params.Collection),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "STAC API request failed",
			slog.String("error", err.Error()),
			slog.String("url", searchURL),
		)
		return nil, fmt.Errorf("STAC API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "STAC API returned non-200 status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(respBody)),
		)
		return nil, fmt.Errorf("STAC API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result itemCollection
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode STAC response: %w", err)
	}

	scenes := make([]Scene, 0, len(result.Features))
	for _, item := range result.Features {
		scene, err := sceneFromItem(item)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping unusable item",
				slog.String("item_id", item.Id),
				slog.String("error", err.Error()),
			)
			continue
		}
		scenes = append(scenes, scene)
	}

	c.logger.DebugContext(ctx, "STAC search completed",
		slog.Int("scene_count", len(scenes)),
	)
	return scenes, nil
}

// sceneFromItem converts a STAC item into a pipeline scene.
func sceneFromItem(item *Item) (Scene, error) {
	if item.Id == "" {
		return Scene{}, fmt.Errorf("item has no id")
	}

	scene := Scene{
		ID:         item.Id,
		Collection: item.Collection,
		CloudCover: -1,
		BandPaths:  make(map[string]string, len(item.Assets)),
	}

	if raw, ok := item.Properties["datetime"].(string); ok {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Scene{}, fmt.Errorf("bad datetime %q: %w", raw, err)
		}
		scene.AcquiredAt = t.UTC()
	}
	if cc, ok := item.Properties["eo:cloud_cover"].(float64); ok {
		scene.CloudCover = cc
	}

	for key, asset := range item.Assets {
		if asset == nil || asset.Href == "" {
			continue
		}
		scene.BandPaths[key] = asset.Href
	}
	if len(scene.BandPaths) == 0 {
		return Scene{}, fmt.Errorf("item has no assets")
	}
	return scene, nil
}

// datetimeInterval formats an open or closed RFC3339 interval the way
// STAC search expects ("start/end", ".." for open ends).
func datetimeInterval(start, end *time.Time) string {
	s, e := "..", ".."
	if start != nil {
		s = start.UTC().Format(time.RFC3339)
	}
	if end != nil {
		e = end.UTC().Format(time.RFC3339)
	}
	return s + "/" + e
}
