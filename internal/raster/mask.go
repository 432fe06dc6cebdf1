package raster

// QA bitmask layout, fixed by the originating platform's pixel QA
// specification. Bit positions are shared between the supported sensor
// generations; the decision logic around them is not.
const (
	QACloudShadowBit = 1 << 3
	QACloudBit       = 1 << 5
	QACloudConfBit   = 1 << 7
)

// MaskCloudsOLI masks every band of a pixel whose QA value flags cloud or
// cloud shadow, per the newer sensor generation's bit layout. Sample
// values are untouched; only validity changes. The input image is not
// modified.
func MaskCloudsOLI(im *Image, qaBand string) (*Image, error) {
	qa, ok := im.Band(qaBand)
	if !ok {
		return nil, ErrNoBand
	}
	keep := make([]bool, im.W*im.H)
	for y := 0; y < im.H; y++ {
		for x := 0; x < im.W; x++ {
			v, valid := qa.At(x, y)
			if !valid {
				continue
			}
			bits := int(v)
			keep[y*im.W+x] = bits&QACloudShadowBit == 0 && bits&QACloudBit == 0
		}
	}
	return maskedCopy(im, keep), nil
}

// MaskCloudsTM masks clouds for the older sensor generation. A pixel is
// cloudy when the cloud bit and its confidence bit are both set, or the
// shadow bit is set. The result additionally intersects the image's
// prior per-pixel validity floor (minimum across all band masks), so
// earlier invalidity such as scan-line gaps survives the masking step.
func MaskCloudsTM(im *Image, qaBand string) (*Image, error) {
	qa, ok := im.Band(qaBand)
	if !ok {
		return nil, ErrNoBand
	}
	floor := im.validityFloor()
	keep := make([]bool, im.W*im.H)
	for y := 0; y < im.H; y++ {
		for x := 0; x < im.W; x++ {
			i := y*im.W + x
			v, valid := qa.At(x, y)
			if !valid {
				continue
			}
			bits := int(v)
			cloud := (bits&QACloudBit != 0 && bits&QACloudConfBit != 0) ||
				bits&QACloudShadowBit != 0
			keep[i] = !cloud && floor[i]
		}
	}
	return maskedCopy(im, keep), nil
}

// maskedCopy clones im and clears validity wherever keep is false.
func maskedCopy(im *Image, keep []bool) *Image {
	out := im.Clone()
	for _, name := range out.order {
		g := out.bands[name]
		for i := range g.valid {
			if !keep[i] {
				g.valid[i] = false
			}
		}
	}
	return out
}
