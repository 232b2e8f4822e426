package imaging

import (
	"image"
)

// MaskSet is the value of a set pixel in a binary plane.
const MaskSet = 255

// Plane is a 2-D grid of 8-bit samples with 1 (gray, mask) or 3 (RGB, HSV)
// interleaved channels. Rows are stored top to bottom without padding.
type Plane struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height, channels int) *Plane {
	return &Plane{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Stride returns the number of bytes per row.
func (p *Plane) Stride() int {
	return p.Width * p.Channels
}

// At returns channel ch of pixel (x, y).
func (p *Plane) At(x, y, ch int) uint8 {
	return p.Pix[(y*p.Width+x)*p.Channels+ch]
}

// Set stores v in channel ch of pixel (x, y).
func (p *Plane) Set(x, y, ch int, v uint8) {
	p.Pix[(y*p.Width+x)*p.Channels+ch] = v
}

// Clone returns a deep copy.
func (p *Plane) Clone() *Plane {
	c := *p
	c.Pix = append([]uint8(nil), p.Pix...)
	return &c
}

// SameGeometry reports whether q has the same width and height as p.
func (p *Plane) SameGeometry(q *Plane) bool {
	return q != nil && p.Width == q.Width && p.Height == q.Height
}

// CountSet returns the number of non-zero samples in a single-channel plane.
func (p *Plane) CountSet() int {
	n := 0
	for _, v := range p.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// GrayImage copies a single-channel plane into an *image.Gray.
// For a 3-channel plane the first channel is used.
func (p *Plane) GrayImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	if p.Channels == 1 {
		copy(img.Pix, p.Pix)
		return img
	}
	for i := range img.Pix {
		img.Pix[i] = p.Pix[i*p.Channels]
	}
	return img
}

// FloatPlane holds one float64 sample per pixel, used for gradient magnitudes.
type FloatPlane struct {
	Width  int
	Height int
	Data   []float64
}

// NewFloatPlane allocates a zeroed float plane.
func NewFloatPlane(width, height int) *FloatPlane {
	return &FloatPlane{Width: width, Height: height, Data: make([]float64, width*height)}
}

// At returns the sample at (x, y), or 0 outside the plane.
func (f *FloatPlane) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Data[y*f.Width+x]
}
