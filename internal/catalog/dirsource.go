package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sceneMetaFile is the per-scene metadata file inside a scene directory.
const sceneMetaFile = "scene.json"

// DirSource serves scenes from a local directory tree, one subdirectory
// per scene holding band TIFFs plus a scene.json with acquisition
// metadata. This is the offline counterpart to the remote STAC client,
// used for study archives already on disk.
type DirSource struct {
	root   string
	logger *slog.Logger
}

// NewDirSource creates a directory-backed scene source.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root, logger: slog.Default()}
}

// WithLogger sets a custom logger for the source.
func (d *DirSource) WithLogger(logger *slog.Logger) *DirSource {
	d.logger = logger
	return d
}

// Name implements SceneSource.
func (d *DirSource) Name() string { return "dir" }

// sceneMeta mirrors scene.json.
type sceneMeta struct {
	ID         string  `json:"id"`
	Collection string  `json:"collection"`
	AcquiredAt string  `json:"acquired_at"`
	CloudCover float64 `json:"cloud_cover"`
}

// Search implements SceneSource over the directory tree.
func (d *DirSource) Search(ctx context.Context, params SearchParams) ([]Scene, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene directory %s: %w", d.root, err)
	}

	var scenes []Scene
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		scene, err := d.loadScene(filepath.Join(d.root, entry.Name()))
		if err != nil {
			d.logger.Warn("skipping scene directory",
				slog.String("dir", entry.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !matches(scene, params) {
			continue
		}
		scenes = append(scenes, scene)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].AcquiredAt.After(scenes[j].AcquiredAt)
	})
	if params.Limit > 0 && len(scenes) > params.Limit {
		scenes = scenes[:params.Limit]
	}

	d.logger.Debug("directory search completed",
		slog.String("root", d.root),
		slog.Int("scene_count", len(scenes)),
	)
	return scenes, nil
}

func (d *DirSource) loadScene(dir string) (Scene, error) {
	raw, err := os.ReadFile(filepath.Join(dir, sceneMetaFile))
	if err != nil {
		return Scene{}, fmt.Errorf("no %s: %w", sceneMetaFile, err)
	}
	var meta sceneMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Scene{}, fmt.Errorf("bad %s: %w", sceneMetaFile, err)
	}
	if meta.ID == "" {
		meta.ID = filepath.Base(dir)
	}

	scene := Scene{
		ID:         meta.ID,
		Collection: meta.Collection,
		CloudCover: meta.CloudCover,
		BandPaths:  make(map[string]string),
	}
	if meta.AcquiredAt != "" {
		t, err := parseSceneTime(meta.AcquiredAt)
		if err != nil {
			return Scene{}, err
		}
		scene.AcquiredAt = t
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return Scene{}, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, f := range files {
		name := f.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".tif" && ext != ".tiff" {
			continue
		}
		band := strings.TrimSuffix(name, filepath.Ext(name))
		scene.BandPaths[band] = filepath.Join(dir, name)
	}
	if len(scene.BandPaths) == 0 {
		return Scene{}, fmt.Errorf("scene %s has no band files", scene.ID)
	}
	return scene, nil
}

// matches applies the search filters to one scene.
func matches(s Scene, params SearchParams) bool {
	if params.Collection != "" && s.Collection != params.Collection {
		return false
	}
	if params.Start != nil && s.AcquiredAt.Before(*params.Start) {
		return false
	}
	if params.End != nil && s.AcquiredAt.After(*params.End) {
		return false
	}
	if params.MaxCloudCover >= 0 && s.CloudCover > params.MaxCloudCover {
		return false
	}
	return true
}
