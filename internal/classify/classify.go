// Package classify implements a k-nearest-neighbour classifier over
// standardized feature vectors, used to label composite pixels with
// land-cover classes.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/aaronalt/gcc-lulc/internal/raster"
	"github.com/aaronalt/gcc-lulc/internal/sample"
)

var (
	ErrNoPrototypes  = errors.New("model has no prototypes")
	ErrBadDimensions = errors.New("feature vector dimensions do not match model")
)

const defaultK = 5

// Prototype is one stored training example: a class label and its
// scaled, L2-normalized feature vector.
type Prototype struct {
	Class    int       `json:"class"`
	Features []float64 `json:"features"`
}

// Scaler standardizes features with z-score normalization so that no
// single dimension dominates the distance metric.
type Scaler struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

// Model is a trained classifier. It is read-only after Train and safe
// for concurrent Predict calls.
type Model struct {
	Bands      []string    `json:"bands"`
	K          int         `json:"k"`
	Scaler     Scaler      `json:"scaler"`
	Prototypes []Prototype `json:"prototypes"`
}

// Train fits a model on the sample set. k defaults when non-positive
// and is capped at the prototype count.
func Train(set *sample.Set, k int) (*Model, error) {
	if len(set.Rows) == 0 {
		return nil, ErrNoPrototypes
	}
	if k <= 0 {
		k = defaultK
	}
	if k > len(set.Rows) {
		k = len(set.Rows)
	}

	scaler, err := fitScaler(set)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Bands:  set.Bands,
		K:      k,
		Scaler: scaler,
	}
	for _, row := range set.Rows {
		features := scaler.Transform(row.Values)
		normalize(features)
		m.Prototypes = append(m.Prototypes, Prototype{Class: row.Class, Features: features})
	}
	return m, nil
}

func fitScaler(set *sample.Set) (Scaler, error) {
	dims := len(set.Bands)
	mean := make([]float64, dims)
	for _, row := range set.Rows {
		if len(row.Values) != dims {
			return Scaler{}, ErrBadDimensions
		}
		for i, v := range row.Values {
			mean[i] += v
		}
	}
	n := float64(len(set.Rows))
	for i := range mean {
		mean[i] /= n
	}

	stddev := make([]float64, dims)
	for _, row := range set.Rows {
		for i, v := range row.Values {
			d := v - mean[i]
			stddev[i] += d * d
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / n)
		// Constant features would divide by zero otherwise.
		if stddev[i] < 1e-10 {
			stddev[i] = 1
		}
	}
	return Scaler{Mean: mean, Stddev: stddev}, nil
}

// Transform applies z-score standardization to a feature vector.
func (s Scaler) Transform(values []float64) []float64 {
	scaled := make([]float64, len(values))
	for i, v := range values {
		scaled[i] = (v - s.Mean[i]) / s.Stddev[i]
	}
	return scaled
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

type neighbor struct {
	class    int
	distance float64
}

// Predict returns the winning class for a raw feature vector plus the
// weighted confidence of that class among the k nearest prototypes.
func (m *Model) Predict(values []float64) (int, float64, error) {
	if len(m.Prototypes) == 0 {
		return 0, 0, ErrNoPrototypes
	}
	if len(values) != len(m.Scaler.Mean) {
		return 0, 0, fmt.Errorf("%w: got %d, want %d", ErrBadDimensions, len(values), len(m.Scaler.Mean))
	}

	features := m.Scaler.Transform(values)
	normalize(features)

	neighbors := make([]neighbor, len(m.Prototypes))
	for i, p := range m.Prototypes {
		neighbors[i] = neighbor{class: p.Class, distance: euclidean(features, p.Features)}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].distance < neighbors[j].distance
	})

	k := m.K
	if k > len(neighbors) {
		k = len(neighbors)
	}

	// Weight = 1/(distance+eps): closer prototypes count more.
	weights := make(map[int]float64)
	var total float64
	for _, n := range neighbors[:k] {
		w := 1.0 / (n.distance + 1e-9)
		weights[n.class] += w
		total += w
	}

	best, bestWeight := 0, -1.0
	for class, w := range weights {
		if w > bestWeight || (w == bestWeight && class < best) {
			best, bestWeight = class, w
		}
	}
	return best, bestWeight / total, nil
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// ClassifyImage labels every pixel of an enriched image whose feature
// bands are all valid; pixels with any invalid feature stay invalid in
// the output grid.
func (m *Model) ClassifyImage(im *raster.Image) (*raster.Grid, error) {
	grids := make([]*raster.Grid, len(m.Bands))
	for i, name := range m.Bands {
		g, ok := im.Band(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", raster.ErrNoBand, name)
		}
		grids[i] = g
	}

	out := raster.NewGrid(im.W, im.H)
	values := make([]float64, len(grids))
	for y := 0; y < im.H; y++ {
	pixels:
		for x := 0; x < im.W; x++ {
			for i, g := range grids {
				v, ok := g.At(x, y)
				if !ok {
					continue pixels
				}
				values[i] = v
			}
			class, _, err := m.Predict(values)
			if err != nil {
				return nil, err
			}
			out.Set(x, y, float64(class))
		}
	}
	return out, nil
}

// Save writes the model as JSON.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// Load reads a model saved by Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if len(m.Prototypes) == 0 {
		return nil, ErrNoPrototypes
	}
	if m.K <= 0 {
		m.K = defaultK
	}
	return &m, nil
}
