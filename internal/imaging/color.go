package imaging

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/parallel"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/cube-vision/internal/frame"
)

// ColorModel selects the canonical color representation the chromatic filter
// works in.
type ColorModel int

const (
	ModelRGB ColorModel = iota
	ModelHSV
)

// String returns the model name used in parameter files.
func (m ColorModel) String() string {
	switch m {
	case ModelRGB:
		return "rgb"
	case ModelHSV:
		return "hsv"
	default:
		return fmt.Sprintf("model(%d)", int(m))
	}
}

// ParseColorModel maps "rgb" or "hsv" to a ColorModel.
func ParseColorModel(name string) (ColorModel, error) {
	switch strings.ToLower(name) {
	case "rgb":
		return ModelRGB, nil
	case "hsv":
		return ModelHSV, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedModel, name)
	}
}

// pixelConverter maps one RGB pixel into a target color model.
type pixelConverter func(r, g, b uint8) (uint8, uint8, uint8)

// converters is the dispatch table for Convert. Adding a color model means
// adding one entry here; the filter and later stages are model-agnostic.
var converters = map[ColorModel]pixelConverter{
	ModelRGB: func(r, g, b uint8) (uint8, uint8, uint8) { return r, g, b },
	ModelHSV: RGBToHSV,
}

// ToRGB unpacks a raw frame into a new 3-channel RGB plane.
//
// The returned plane is the pipeline's working copy: once ToRGB returns, the
// frame may be released back to its source.
//
// Conversion paths:
//   - FormatGray: the luma value is replicated into R, G and B
//   - FormatRGB24: bytes are copied as-is
//   - FormatYUYV: each Y0 U Y1 V group is decoded into two pixels sharing chroma
//
// Any other format fails with ErrUnsupportedFormat.
func ToRGB(f *frame.Frame) (*Plane, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("failed to normalize frame: %w", err)
	}

	out := NewPlane(f.Width, f.Height, 3)
	stride := f.Stride()

	var unpack func(y int)
	switch f.Format {
	case frame.FormatGray:
		unpack = func(y int) {
			src := f.Pix[y*stride : (y+1)*stride]
			dst := out.Pix[y*out.Stride():]
			for x, v := range src {
				dst[x*3], dst[x*3+1], dst[x*3+2] = v, v, v
			}
		}
	case frame.FormatRGB24:
		unpack = func(y int) {
			copy(out.Pix[y*out.Stride():(y+1)*out.Stride()], f.Pix[y*stride:(y+1)*stride])
		}
	case frame.FormatYUYV:
		unpack = func(y int) {
			src := f.Pix[y*stride : (y+1)*stride]
			dst := out.Pix[y*out.Stride():]
			for i := 0; i+3 < len(src); i += 4 {
				j := i / 2 * 3
				dst[j], dst[j+1], dst[j+2], dst[j+3], dst[j+4], dst[j+5] =
					frame.YUYVPair(src[i], src[i+1], src[i+2], src[i+3])
			}
		}
	default:
		return nil, fmt.Errorf("failed to normalize frame: %w: %s", ErrUnsupportedFormat, f.Format)
	}

	parallel.Line(f.Height, func(start, end int) {
		for y := start; y < end; y++ {
			unpack(y)
		}
	})
	return out, nil
}

// Convert maps an RGB plane into the given color model, returning a new plane.
func Convert(rgb *Plane, model ColorModel) (*Plane, error) {
	if rgb.Channels != 3 {
		return nil, fmt.Errorf("%w: color conversion needs 3 channels, got %d", ErrChannelMismatch, rgb.Channels)
	}
	conv, ok := converters[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
	}

	out := NewPlane(rgb.Width, rgb.Height, 3)
	stride := rgb.Stride()
	parallel.Line(rgb.Height, func(start, end int) {
		for i := start * stride; i < end*stride; i += 3 {
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = conv(rgb.Pix[i], rgb.Pix[i+1], rgb.Pix[i+2])
		}
	})
	return out, nil
}

// Normalize converts a raw frame straight into the given color model.
func Normalize(f *frame.Frame, model ColorModel) (*Plane, error) {
	if _, ok := converters[model]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
	}
	rgb, err := ToRGB(f)
	if err != nil {
		return nil, err
	}
	if model == ModelRGB {
		return rgb, nil
	}
	return Convert(rgb, model)
}

// Luma computes the grayscale plane of an RGB plane using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B), rounded to the nearest integer.
func Luma(rgb *Plane) (*Plane, error) {
	if rgb.Channels != 3 {
		return nil, fmt.Errorf("%w: luma needs 3 channels, got %d", ErrChannelMismatch, rgb.Channels)
	}
	out := NewPlane(rgb.Width, rgb.Height, 1)
	for i := range out.Pix {
		r, g, b := float64(rgb.Pix[i*3]), float64(rgb.Pix[i*3+1]), float64(rgb.Pix[i*3+2])
		out.Pix[i] = uint8(math.Round(0.299*r + 0.587*g + 0.114*b))
	}
	return out, nil
}

// RGBToHSV converts one 8-bit RGB pixel to 8-bit HSV.
//
// Returns:
//   - h: hue in degrees halved, [0,180). Red wraps to 0.
//   - s: (max-min)/max scaled to [0,255], 0 for black
//   - v: max(r, g, b)
//
// Gray pixels (r == g == b) have hue 0 and saturation 0.
func RGBToHSV(r, g, b uint8) (h, s, v uint8) {
	max := r
	if g > max {
		max = g
	}
	if b > max {
		max = b
	}
	min := r
	if g < min {
		min = g
	}
	if b < min {
		min = b
	}

	v = max
	if max == 0 {
		return 0, 0, 0
	}
	diff := float64(max) - float64(min)
	s = uint8(math.Round(diff * 255 / float64(max)))
	if diff == 0 {
		return 0, s, v
	}

	var deg float64
	switch max {
	case r:
		deg = 60 * (float64(g) - float64(b)) / diff
	case g:
		deg = 120 + 60*(float64(b)-float64(r))/diff
	default:
		deg = 240 + 60*(float64(r)-float64(g))/diff
	}
	if deg < 0 {
		deg += 360
	}

	hh := math.Round(deg / 2)
	if hh >= 180 {
		hh -= 180
	}
	return uint8(hh), s, v
}

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSVColor is an HSV color in the 8-bit convention used by the chromatic filter.
type HSVColor struct {
	H uint8 `json:"h"` // Hue: 0-179 (degrees halved)
	S uint8 `json:"s"` // Saturation: 0-255
	V uint8 `json:"v"` // Value: 0-255
}

// ColorResult contains a sampled color in the representations used to
// calibrate the chromatic filter.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"`
	HSV HSVColor `json:"hsv"`

	// HueDegrees is the full-range hue (0-360) for readers more used to
	// color pickers than to the halved 8-bit convention.
	HueDegrees float64 `json:"hue_degrees"`
}

// SampleColor extracts the color at a pixel so that threshold bounds can be
// chosen from a reference snapshot of the target object.
//
// Parameters:
//   - img: The source image to sample from.
//   - x, y: 0-based pixel coordinates.
//
// Returns:
//   - *ColorResult: The color in hex, RGB and HSV form.
//   - error: Non-nil if the coordinates are outside the image bounds.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r, g, b, _ := img.At(x, y).RGBA()
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
	h, s, v := RGBToHSV(r8, g8, b8)

	c := colorful.Color{R: float64(r8) / 255, G: float64(g8) / 255, B: float64(b8) / 255}
	deg, _, _ := c.Hsv()

	return &ColorResult{
		Hex:        strings.ToUpper(c.Hex()),
		RGB:        RGBColor{R: r8, G: g8, B: b8},
		HSV:        HSVColor{H: h, S: s, V: v},
		HueDegrees: math.Round(deg*10) / 10,
	}, nil
}
