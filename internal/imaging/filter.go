package imaging

import (
	"fmt"

	"github.com/anthonynsimon/bild/parallel"
)

// ThresholdInterval holds inclusive per-channel bounds for the chromatic filter.
// Channel order follows the plane's color model: R,G,B or H,S,V.
//
// Min <= Max is not enforced. A channel with Min > Max matches no value, so
// the whole mask comes out clear.
type ThresholdInterval struct {
	Min [3]int `json:"min"`
	Max [3]int `json:"max"`
}

// Degenerate reports whether some channel has Min > Max.
func (iv ThresholdInterval) Degenerate() bool {
	for ch := 0; ch < 3; ch++ {
		if iv.Min[ch] > iv.Max[ch] {
			return true
		}
	}
	return false
}

// Contains reports whether every channel value lies within its bounds.
func (iv ThresholdInterval) Contains(c0, c1, c2 uint8) bool {
	return int(c0) >= iv.Min[0] && int(c0) <= iv.Max[0] &&
		int(c1) >= iv.Min[1] && int(c1) <= iv.Max[1] &&
		int(c2) >= iv.Min[2] && int(c2) <= iv.Max[2]
}

// InRange produces a binary mask of the pixels whose three channels all fall
// inside iv. Each pixel is classified on its own, so rows are evaluated in
// parallel; the call returns once every row is written.
func InRange(p *Plane, iv ThresholdInterval) (*Plane, error) {
	if p.Channels != 3 {
		return nil, fmt.Errorf("%w: chromatic filter needs 3 channels, got %d", ErrChannelMismatch, p.Channels)
	}

	mask := NewPlane(p.Width, p.Height, 1)
	if iv.Degenerate() {
		return mask, nil
	}

	parallel.Line(p.Height, func(start, end int) {
		for i := start * p.Width; i < end*p.Width; i++ {
			if iv.Contains(p.Pix[i*3], p.Pix[i*3+1], p.Pix[i*3+2]) {
				mask.Pix[i] = MaskSet
			}
		}
	})
	return mask, nil
}
