package imaging

import (
	"fmt"
	"math"
)

// Aperture limits for the Sobel operator.
const (
	MinAperture = 3
	MaxAperture = 53
)

const (
	tan22 = 0.41421356237309503 // tan(22.5°)
	tan67 = 2.414213562373095   // tan(67.5°)
)

// EdgeConfig configures Canny edge extraction.
type EdgeConfig struct {
	// Threshold1 and Threshold2 are the hysteresis thresholds. Their order does
	// not matter: the smaller acts as the low threshold, the larger as the high.
	Threshold1 float64 `json:"threshold1"`
	Threshold2 float64 `json:"threshold2"`

	// Aperture is the Sobel kernel size: odd, within [3,53].
	Aperture int `json:"aperture"`

	// L2Gradient selects sqrt(gx²+gy²) instead of |gx|+|gy| for the magnitude.
	L2Gradient bool `json:"l2gradient"`
}

// Validate checks the aperture.
func (c EdgeConfig) Validate() error {
	if c.Aperture%2 == 0 || c.Aperture < MinAperture || c.Aperture > MaxAperture {
		return fmt.Errorf("%w: got %d", ErrInvalidAperture, c.Aperture)
	}
	return nil
}

// Canny detects edges in a single-channel plane (a mask or a grayscale image).
//
// The returned plane has MaskSet on edge pixels and 0 elsewhere.
//
// # Algorithm
//
//  1. Gradients: separable Sobel derivatives of the configured aperture
//     (replicated border).
//  2. Magnitude: |gx|+|gy| (L1) or sqrt(gx²+gy²) (L2).
//  3. Non-maximum suppression: a pixel survives only if it is a local maximum
//     along its gradient direction, quantised to 0°, 45°, 90° or 135°.
//  4. Hysteresis: see Hysteresis.
//
// Unlike a textbook Canny there is no Gaussian pre-blur; the inputs are
// already cleaned binary masks or camera images, and the Sobel smoothing term
// grows with the aperture.
func Canny(src *Plane, cfg EdgeConfig) (*Plane, error) {
	mag, err := Gradient(src, cfg)
	if err != nil {
		return nil, err
	}
	return Hysteresis(mag, cfg.Threshold1, cfg.Threshold2), nil
}

// Gradient returns the gradient magnitude of src after non-maximum
// suppression: suppressed pixels are 0, surviving pixels keep their magnitude.
func Gradient(src *Plane, cfg EdgeConfig) (*FloatPlane, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src.Channels != 1 {
		return nil, fmt.Errorf("%w: edge extraction needs 1 channel, got %d", ErrChannelMismatch, src.Channels)
	}

	w, h := src.Width, src.Height
	in := make([]float64, w*h)
	for i, v := range src.Pix {
		in[i] = float64(v)
	}

	deriv, smooth := sobelKernels(cfg.Aperture)
	gx := separable(in, w, h, deriv, smooth)
	gy := separable(in, w, h, smooth, deriv)

	mag := NewFloatPlane(w, h)
	for i := range mag.Data {
		if cfg.L2Gradient {
			mag.Data[i] = math.Sqrt(gx[i]*gx[i] + gy[i]*gy[i])
		} else {
			mag.Data[i] = math.Abs(gx[i]) + math.Abs(gy[i])
		}
	}

	return suppressNonMaxima(mag, gx, gy), nil
}

// Hysteresis links a thinned gradient map into an edge map.
//
// The thresholds are first ordered so that low = min(t1, t2) and
// high = max(t1, t2). Pixels with magnitude >= high are edges. Pixels with
// magnitude >= low become edges when they touch an edge pixel in their
// 8-neighbourhood, transitively. Pixels below low, and zero-magnitude pixels,
// are never edges.
func Hysteresis(mag *FloatPlane, t1, t2 float64) *Plane {
	low, high := t1, t2
	if low > high {
		low, high = high, low
	}

	w, h := mag.Width, mag.Height
	out := NewPlane(w, h, 1)
	stack := make([]int, 0, 256)

	for i, v := range mag.Data {
		if v > 0 && v >= high {
			out.Pix[i] = MaskSet
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if out.Pix[j] == 0 && mag.Data[j] > 0 && mag.Data[j] >= low {
					out.Pix[j] = MaskSet
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// suppressNonMaxima keeps pixels that are local maxima along the gradient
// direction. Ties are broken towards the left/top neighbour so a flat ridge
// two pixels wide keeps exactly one pixel. Neighbours outside the image count
// as zero.
func suppressNonMaxima(mag *FloatPlane, gx, gy []float64) *FloatPlane {
	w, h := mag.Width, mag.Height
	out := NewFloatPlane(w, h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag.Data[i]
			if m == 0 {
				continue
			}

			xs, ys := math.Abs(gx[i]), math.Abs(gy[i])
			var keep bool
			switch {
			case ys < xs*tan22:
				// Horizontal gradient: compare left/right
				keep = m > mag.At(x-1, y) && m >= mag.At(x+1, y)
			case ys > xs*tan67:
				// Vertical gradient: compare up/down
				keep = m > mag.At(x, y-1) && m >= mag.At(x, y+1)
			default:
				s := 1
				if (gx[i] < 0) != (gy[i] < 0) {
					s = -1
				}
				keep = m > mag.At(x-s, y-1) && m > mag.At(x+s, y+1)
			}
			if keep {
				out.Data[i] = m
			}
		}
	}
	return out
}

// sobelKernels returns the 1-D derivative and smoothing kernels of a Sobel
// operator with the given odd aperture.
//
// The smoothing kernel is the binomial row of order aperture-1; the
// derivative kernel is the binomial row of order aperture-3 convolved with
// the central difference [-1 0 1]. For aperture 3 this gives the familiar
// [-1 0 1] and [1 2 1].
func sobelKernels(aperture int) (deriv, smooth []float64) {
	smooth = binomial(aperture - 1)
	base := binomial(aperture - 3)
	deriv = make([]float64, aperture)
	for i, c := range base {
		deriv[i] -= c
		deriv[i+2] += c
	}
	return deriv, smooth
}

// binomial returns the n+1 binomial coefficients C(n, k).
func binomial(n int) []float64 {
	row := make([]float64, n+1)
	row[0] = 1
	for i := 1; i <= n; i++ {
		for k := i; k > 0; k-- {
			row[k] += row[k-1]
		}
	}
	return row
}

// separable correlates src with kx along rows and then ky along columns,
// replicating edge pixels beyond the border.
func separable(src []float64, w, h int, kx, ky []float64) []float64 {
	rx, ry := len(kx)/2, len(ky)/2
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var sum float64
			for k, c := range kx {
				if c == 0 {
					continue
				}
				sum += row[clamp(x+k-rx, 0, w-1)] * c
			}
			tmp[y*w+x] = sum
		}
	}

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, c := range ky {
				if c == 0 {
					continue
				}
				sum += tmp[clamp(y+k-ry, 0, h-1)*w+x] * c
			}
			out[y*w+x] = sum
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
