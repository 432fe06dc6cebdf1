// Package spectral implements the feature-engineering pipeline: sensor
// band mapping, cloud masking dispatch, the spectral index battery and
// terrain attributes. One parametrized pipeline covers both sensor
// generations; the variant is an explicit caller choice, never detected
// from the data.
package spectral

import (
	"fmt"
	"sort"

	"github.com/aaronalt/gcc-lulc/internal/raster"
)

// Canonical band names. Index formulas are written against these, so an
// index name always denotes the same physical quantity regardless of
// which sensor produced the scene.
const (
	BandBlue      = "blue"
	BandGreen     = "green"
	BandRed       = "red"
	BandNIR       = "nir"
	BandSwir1     = "swir1"
	BandSwir2     = "swir2"
	BandQA        = "qa"
	BandElevation = "elevation"
	BandSlope     = "slope"
)

// reflectanceBands are the canonical inputs every index draws from.
var reflectanceBands = []string{
	BandBlue, BandGreen, BandRed, BandNIR, BandSwir1, BandSwir2,
}

// Sensor describes one sensor generation: the mapping from source band
// names to canonical names, the QA band, and whether the legacy-only
// index subset (GNDVI, AVI) applies. Selecting the wrong sensor for a
// scene is a caller error with no runtime detection.
type Sensor struct {
	Name string
	// Bands maps source band names to canonical names.
	Bands map[string]string
	// QABand is the source name of the quality bitmask band.
	QABand string
	// Legacy enables the older generation's extra indices and its
	// cloud-mask/gap-fill behaviour.
	Legacy bool
}

// SensorOLI is the newer 8-band sensor generation (30 m surface
// reflectance, bands SR_B1..SR_B7 plus QA_PIXEL).
var SensorOLI = Sensor{
	Name: "oli",
	Bands: map[string]string{
		"SR_B2": BandBlue,
		"SR_B3": BandGreen,
		"SR_B4": BandRed,
		"SR_B5": BandNIR,
		"SR_B6": BandSwir1,
		"SR_B7": BandSwir2,
	},
	QABand: "QA_PIXEL",
}

// SensorTM is the older sensor generation, with its own wavelength to
// band assignment and the scan-line gap defect.
var SensorTM = Sensor{
	Name: "tm",
	Bands: map[string]string{
		"SR_B1": BandBlue,
		"SR_B2": BandGreen,
		"SR_B3": BandRed,
		"SR_B4": BandNIR,
		"SR_B5": BandSwir1,
		"SR_B7": BandSwir2,
	},
	QABand: "QA_PIXEL",
	Legacy: true,
}

// SourceBands lists the sensor's reflectance band names in source form,
// sorted for stable loading order.
func (s Sensor) SourceBands() []string {
	out := make([]string, 0, len(s.Bands))
	for src := range s.Bands {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// SensorByName resolves a configured sensor name.
func SensorByName(name string) (Sensor, error) {
	switch name {
	case SensorOLI.Name:
		return SensorOLI, nil
	case SensorTM.Name:
		return SensorTM, nil
	}
	return Sensor{}, fmt.Errorf("%w: %q", ErrUnknownSensor, name)
}

// Canonicalize returns a new image holding the sensor's reflectance
// bands under their canonical names plus the QA band under "qa". Source
// bands outside the mapping are dropped.
func (s Sensor) Canonicalize(im *raster.Image) (*raster.Image, error) {
	out := raster.NewImage(im.W, im.H, im.Ref)
	for src, canonical := range s.Bands {
		g, ok := im.Band(src)
		if !ok {
			return nil, fmt.Errorf("%w: source band %q (%s)", ErrMissingBand, src, canonical)
		}
		if err := out.AddBand(canonical, g.Clone()); err != nil {
			return nil, err
		}
	}
	qa, ok := im.Band(s.QABand)
	if !ok {
		return nil, fmt.Errorf("%w: QA band %q", ErrMissingBand, s.QABand)
	}
	if err := out.AddBand(BandQA, qa.Clone()); err != nil {
		return nil, err
	}
	return out, nil
}

// MaskClouds applies the sensor generation's QA cloud/shadow mask to a
// canonicalized image.
func (s Sensor) MaskClouds(im *raster.Image) (*raster.Image, error) {
	if s.Legacy {
		return raster.MaskCloudsTM(im, BandQA)
	}
	return raster.MaskCloudsOLI(im, BandQA)
}

// PrepareScene canonicalizes band names, masks clouds and, for the
// legacy sensor, fills scan-line gaps. The result is ready for temporal
// compositing.
func (s Sensor) PrepareScene(im *raster.Image) (*raster.Image, error) {
	canon, err := s.Canonicalize(im)
	if err != nil {
		return nil, err
	}
	masked, err := s.MaskClouds(canon)
	if err != nil {
		return nil, err
	}
	if s.Legacy {
		masked = raster.FillImageGaps(masked)
	}
	return masked, nil
}
