package imaging

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// stepPlane returns a gray plane that is black left of column split and white
// from split onwards.
func stepPlane(width, height, split int) *Plane {
	p := NewPlane(width, height, 1)
	for y := 0; y < height; y++ {
		for x := split; x < width; x++ {
			p.Set(x, y, 0, 255)
		}
	}
	return p
}

func defaultEdgeConfig() EdgeConfig {
	return EdgeConfig{Threshold1: 50, Threshold2: 150, Aperture: 3}
}

func TestCanny_StrongEdge(t *testing.T) {
	src := stepPlane(100, 100, 50)

	for _, l2 := range []bool{false, true} {
		cfg := defaultEdgeConfig()
		cfg.L2Gradient = l2

		edges, err := Canny(src, cfg)
		if err != nil {
			t.Fatalf("Canny(l2=%v) failed: %v", l2, err)
		}

		// Non-maximum suppression keeps one pixel of the two-pixel ridge
		for y := 0; y < 100; y++ {
			if edges.At(49, y, 0) != MaskSet {
				t.Fatalf("l2=%v: row %d has no edge at x=49", l2, y)
			}
		}
		if n := edges.CountSet(); n != 100 {
			t.Errorf("l2=%v: got %d edge pixels, want 100", l2, n)
		}
	}
}

func TestCanny_UniformImage(t *testing.T) {
	src := NewPlane(50, 50, 1)
	for i := range src.Pix {
		src.Pix[i] = 128
	}

	edges, err := Canny(src, defaultEdgeConfig())
	if err != nil {
		t.Fatalf("Canny failed: %v", err)
	}
	if n := edges.CountSet(); n != 0 {
		t.Errorf("uniform image produced %d edge pixels, want 0", n)
	}
}

func TestCanny_MaskBlock(t *testing.T) {
	src := maskWithRect(40, 40, 10, 10, 30, 30)

	edges, err := Canny(src, defaultEdgeConfig())
	if err != nil {
		t.Fatalf("Canny failed: %v", err)
	}
	if edges.CountSet() == 0 {
		t.Fatal("block outline was not detected")
	}

	// Edges hug the block boundary
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if edges.At(x, y, 0) == 0 {
				continue
			}
			inner := x >= 12 && x < 28 && y >= 12 && y < 28
			outer := x < 8 || x >= 32 || y < 8 || y >= 32
			if inner || outer {
				t.Errorf("edge pixel (%d,%d) is far from the block boundary", x, y)
			}
		}
	}
	t.Logf("block outline pixels: %d", edges.CountSet())
}

func TestCanny_ThresholdOrderDoesNotMatter(t *testing.T) {
	src := maskWithRect(30, 30, 5, 5, 20, 25)

	a, err := Canny(src, EdgeConfig{Threshold1: 50, Threshold2: 150, Aperture: 3})
	if err != nil {
		t.Fatalf("Canny failed: %v", err)
	}
	b, err := Canny(src, EdgeConfig{Threshold1: 150, Threshold2: 50, Aperture: 3})
	if err != nil {
		t.Fatalf("Canny failed: %v", err)
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("pixel %d differs between (50,150) and (150,50)", i)
		}
	}
}

func TestCanny_LargerApertures(t *testing.T) {
	src := stepPlane(40, 20, 20)
	for _, aperture := range []int{5, 7, 53} {
		cfg := defaultEdgeConfig()
		cfg.Aperture = aperture
		edges, err := Canny(src, cfg)
		if err != nil {
			t.Fatalf("Canny(aperture=%d) failed: %v", aperture, err)
		}
		if edges.CountSet() == 0 {
			t.Errorf("aperture %d found no edges on a step", aperture)
		}
	}
}

func TestCanny_InvalidAperture(t *testing.T) {
	src := NewPlane(10, 10, 1)
	for _, aperture := range []int{0, 1, 2, 4, 54, 55} {
		cfg := defaultEdgeConfig()
		cfg.Aperture = aperture
		if _, err := Canny(src, cfg); !errors.Is(err, ErrInvalidAperture) {
			t.Errorf("aperture %d: got %v, want ErrInvalidAperture", aperture, err)
		}
	}
}

func TestCanny_ChannelMismatch(t *testing.T) {
	if _, err := Canny(NewPlane(10, 10, 3), defaultEdgeConfig()); !errors.Is(err, ErrChannelMismatch) {
		t.Errorf("got %v, want ErrChannelMismatch", err)
	}
}

func TestHysteresis_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := 0; trial < 50; trial++ {
		w, h := 8+rng.IntN(24), 8+rng.IntN(24)
		mag := NewFloatPlane(w, h)
		for i := range mag.Data {
			if rng.IntN(3) == 0 {
				mag.Data[i] = float64(rng.IntN(300))
			}
		}
		t1, t2 := float64(rng.IntN(200)), float64(rng.IntN(200))
		low, high := min(t1, t2), max(t1, t2)

		a := Hysteresis(mag, t1, t2)
		b := Hysteresis(mag, t2, t1)

		for i, v := range mag.Data {
			if a.Pix[i] != b.Pix[i] {
				t.Fatalf("trial %d: pixel %d depends on threshold order", trial, i)
			}
			edge := a.Pix[i] == MaskSet
			if edge && (v == 0 || v < low) {
				t.Fatalf("trial %d: pixel %d with magnitude %.0f < low %.0f is an edge", trial, i, v, low)
			}
			if v > 0 && v >= high && !edge {
				t.Fatalf("trial %d: pixel %d with magnitude %.0f >= high %.0f is not an edge", trial, i, v, high)
			}
			if !edge && v > 0 && v >= low && touchesEdge(a, i) {
				t.Fatalf("trial %d: weak pixel %d touches an edge but was not linked", trial, i)
			}
		}
	}
}

func TestHysteresis_WeakChainNeedsStrongSeed(t *testing.T) {
	mag := NewFloatPlane(6, 1)
	copy(mag.Data, []float64{60, 60, 200, 60, 0, 60})

	out := Hysteresis(mag, 50, 150)
	want := []uint8{MaskSet, MaskSet, MaskSet, MaskSet, 0, 0}
	for i, w := range want {
		if out.Pix[i] != w {
			t.Errorf("pixel %d: got %d, want %d", i, out.Pix[i], w)
		}
	}
}

func TestSobelKernels(t *testing.T) {
	tests := []struct {
		aperture     int
		deriv, smoot []float64
	}{
		{3, []float64{-1, 0, 1}, []float64{1, 2, 1}},
		{5, []float64{-1, -2, 0, 2, 1}, []float64{1, 4, 6, 4, 1}},
	}

	for _, tt := range tests {
		deriv, smooth := sobelKernels(tt.aperture)
		for i := range tt.deriv {
			if deriv[i] != tt.deriv[i] {
				t.Errorf("aperture %d deriv: got %v, want %v", tt.aperture, deriv, tt.deriv)
				break
			}
		}
		for i := range tt.smoot {
			if smooth[i] != tt.smoot[i] {
				t.Errorf("aperture %d smooth: got %v, want %v", tt.aperture, smooth, tt.smoot)
				break
			}
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},   // within range
		{-1, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}

// touchesEdge reports whether pixel i has an edge pixel in its 8-neighbourhood.
func touchesEdge(edges *Plane, i int) bool {
	x, y := i%edges.Width, i/edges.Width
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= edges.Width || ny >= edges.Height {
				continue
			}
			if edges.Pix[ny*edges.Width+nx] == MaskSet {
				return true
			}
		}
	}
	return false
}
