package raster

// Image is a set of named bands sharing one grid shape and georeference,
// so per-pixel band arithmetic is always well defined. Bands are only
// ever added; existing bands are never replaced or removed.
type Image struct {
	W, H  int
	Ref   Georef
	bands map[string]*Grid
	order []string
}

// NewImage creates an empty image with the given shape and georeference.
func NewImage(w, h int, ref Georef) *Image {
	return &Image{
		W:     w,
		H:     h,
		Ref:   ref,
		bands: make(map[string]*Grid),
	}
}

// AddBand attaches a band under the given name. The grid must match the
// image shape and the name must be unused.
func (im *Image) AddBand(name string, g *Grid) error {
	if g.W != im.W || g.H != im.H {
		return ErrShapeMismatch
	}
	if _, exists := im.bands[name]; exists {
		return ErrBandExists
	}
	im.bands[name] = g
	im.order = append(im.order, name)
	return nil
}

// Band returns the named band, or nil and false if absent.
func (im *Image) Band(name string) (*Grid, bool) {
	g, ok := im.bands[name]
	return g, ok
}

// Has reports whether the named band is present.
func (im *Image) Has(name string) bool {
	_, ok := im.bands[name]
	return ok
}

// BandNames returns band names in insertion order.
func (im *Image) BandNames() []string {
	out := make([]string, len(im.order))
	copy(out, im.order)
	return out
}

// NumBands returns the number of attached bands.
func (im *Image) NumBands() int {
	return len(im.bands)
}

// Clone returns a deep copy of the image, bands included.
func (im *Image) Clone() *Image {
	c := NewImage(im.W, im.H, im.Ref)
	for _, name := range im.order {
		c.bands[name] = im.bands[name].Clone()
		c.order = append(c.order, name)
	}
	return c
}

// validityFloor returns, per pixel, the minimum validity across all bands:
// true only where every band is valid. This propagates prior invalidity
// (e.g. scan-line gaps) into derived masks.
func (im *Image) validityFloor() []bool {
	floor := make([]bool, im.W*im.H)
	for i := range floor {
		floor[i] = true
	}
	for _, g := range im.bands {
		for i, ok := range g.valid {
			if !ok {
				floor[i] = false
			}
		}
	}
	return floor
}
