package imaging

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/parallel"
)

// MorphologyConfig sets the number of erosion and dilation passes applied to
// the chromatic mask. Zero skips the corresponding pass.
type MorphologyConfig struct {
	Erode  int `json:"erode"`
	Dilate int `json:"dilate"`
}

// StructuringElement is the neighbourhood a morphological pass inspects,
// as offsets from the anchor pixel.
type StructuringElement []image.Point

var (
	// RectElement is the 3x3 rectangle used for erosion.
	RectElement = StructuringElement{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {0, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}

	// EllipseElement is the 3x3 ellipse used for dilation. At this size the
	// ellipse is the 4-connected cross.
	EllipseElement = StructuringElement{
		{0, -1},
		{-1, 0}, {0, 0}, {1, 0},
		{0, 1},
	}
)

// Cleanup applies cfg.Erode erosions with RectElement followed by cfg.Dilate
// dilations with EllipseElement ("opening"). The order is fixed: small
// isolated blobs vanish during erosion and are not regrown.
//
// Pixels outside the image count as clear (zero padding). The input is not
// modified; with both counts zero the result is an exact copy.
func Cleanup(mask *Plane, cfg MorphologyConfig) (*Plane, error) {
	if mask.Channels != 1 {
		return nil, fmt.Errorf("%w: morphology needs 1 channel, got %d", ErrChannelMismatch, mask.Channels)
	}
	return Dilate(Erode(mask, RectElement, cfg.Erode), EllipseElement, cfg.Dilate), nil
}

// Erode runs n erosion passes with se.
func Erode(mask *Plane, se StructuringElement, n int) *Plane {
	out := mask.Clone()
	for i := 0; i < n; i++ {
		out = morph(out, se, true)
	}
	return out
}

// Dilate runs n dilation passes with se.
func Dilate(mask *Plane, se StructuringElement, n int) *Plane {
	out := mask.Clone()
	for i := 0; i < n; i++ {
		out = morph(out, se, false)
	}
	return out
}

// morph performs one pass: logical AND over the element for erosion, OR for
// dilation.
func morph(src *Plane, se StructuringElement, erode bool) *Plane {
	w, h := src.Width, src.Height
	dst := NewPlane(w, h, 1)

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				hit := erode
				for _, off := range se {
					px, py := x+off.X, y+off.Y
					set := px >= 0 && px < w && py >= 0 && py < h && src.Pix[py*w+px] != 0
					if erode && !set {
						hit = false
						break
					}
					if !erode && set {
						hit = true
						break
					}
				}
				if hit {
					dst.Pix[y*w+x] = MaskSet
				}
			}
		}
	})
	return dst
}
