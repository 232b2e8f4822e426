package detection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ironsheep/cube-vision/internal/imaging"
)

// Hough transform constants. Only the accumulator threshold is configurable.
const (
	RhoResolution    = 1.0           // pixels
	ThetaResolution  = math.Pi / 180 // 1 degree
	MinSegmentLength = 20            // pixels spanned in x or y
	MaxSegmentGap    = 10            // missing pixels tolerated while walking a line
)

const (
	fixedShift = 16
	houghSeed1 = 0x5eed
	houghSeed2 = 0xc0be
)

// LineConfig configures the line extractor.
type LineConfig struct {
	// Threshold is the minimum number of accumulator votes a line needs.
	Threshold int `json:"threshold"`
}

// LineSegment is a detected segment in image coordinates.
type LineSegment struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Length returns the euclidean length of the segment.
func (s LineSegment) Length() float64 {
	return r2.Norm(r2.Sub(s.end(), s.start()))
}

// AngleDegrees returns the direction from start to end in degrees, (-180,180].
func (s LineSegment) AngleDegrees() float64 {
	d := r2.Sub(s.end(), s.start())
	return math.Atan2(d.Y, d.X) * 180 / math.Pi
}

func (s LineSegment) start() r2.Vec { return r2.Vec{X: float64(s.X1), Y: float64(s.Y1)} }
func (s LineSegment) end() r2.Vec   { return r2.Vec{X: float64(s.X2), Y: float64(s.Y2)} }

// HoughSegments finds straight segments in a binary edge map with the
// progressive probabilistic Hough transform, then folds near-duplicates
// together with MergeSegments.
//
// Edge pixels are visited in a pseudo-random order drawn from a fixed seed,
// so the same edge map always yields the same segments. Each visited pixel
// votes for every (theta, rho) line through it. When a line reaches
// cfg.Threshold votes it is walked in both directions from the pixel,
// tolerating up to MaxSegmentGap missing pixels; runs spanning at least
// MinSegmentLength in x or y are kept and their pixels withdraw their votes.
// Every pixel a walk passes over is consumed.
//
// Any non-zero sample in the first channel counts as an edge. An empty map
// yields an empty slice. The order of the result is not meaningful.
func HoughSegments(edges *imaging.Plane, cfg LineConfig) []LineSegment {
	return MergeSegments(houghRaw(edges, cfg.Threshold), MaxSegmentGap)
}

func houghRaw(edges *imaging.Plane, threshold int) []LineSegment {
	w, h := edges.Width, edges.Height
	numAngle := int(math.Round(math.Pi / ThetaResolution))
	numRho := int(math.Round(float64((w+h)*2+1) / RhoResolution))
	rhoOffset := (numRho - 1) / 2

	cosTab := make([]float64, numAngle)
	sinTab := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		theta := float64(n) * ThetaResolution
		cosTab[n] = math.Cos(theta) / RhoResolution
		sinTab[n] = math.Sin(theta) / RhoResolution
	}

	mask := make([]bool, w*h)
	points := make([]int, 0, 256)
	for i := 0; i < w*h; i++ {
		if edges.Pix[i*edges.Channels] != 0 {
			mask[i] = true
			points = append(points, i)
		}
	}
	if len(points) == 0 {
		return []LineSegment{}
	}

	accum := make([]int, numAngle*numRho)
	vote := func(x, y, delta int) {
		for n := 0; n < numAngle; n++ {
			r := int(math.RoundToEven(float64(x)*cosTab[n]+float64(y)*sinTab[n])) + rhoOffset
			accum[n*numRho+r] += delta
		}
	}

	rng := rand.New(rand.NewPCG(houghSeed1, houghSeed2))
	segments := []LineSegment{}

	for count := len(points); count > 0; count-- {
		idx := rng.IntN(count)
		p := points[idx]
		points[idx] = points[count-1]

		x, y := p%w, p/w
		if !mask[p] {
			continue
		}

		maxVal, maxN := threshold-1, 0
		for n := 0; n < numAngle; n++ {
			r := int(math.RoundToEven(float64(x)*cosTab[n]+float64(y)*sinTab[n])) + rhoOffset
			accum[n*numRho+r]++
			if v := accum[n*numRho+r]; maxVal < v {
				maxVal, maxN = v, n
			}
		}
		if maxVal < threshold {
			continue
		}

		wk := newWalker(x, y, -sinTab[maxN], cosTab[maxN])

		var ends [2][2]int
		for k := 0; k < 2; k++ {
			gap := 0
			wk.each(k, w, h, func(px, py int) bool {
				if mask[py*w+px] {
					gap = 0
					ends[k] = [2]int{px, py}
					return true
				}
				gap++
				return gap <= MaxSegmentGap
			})
		}

		good := absInt(ends[1][0]-ends[0][0]) >= MinSegmentLength ||
			absInt(ends[1][1]-ends[0][1]) >= MinSegmentLength

		for k := 0; k < 2; k++ {
			wk.each(k, w, h, func(px, py int) bool {
				i := py*w + px
				if mask[i] {
					if good {
						vote(px, py, -1)
					}
					mask[i] = false
				}
				return px != ends[k][0] || py != ends[k][1]
			})
		}

		if good {
			segments = append(segments, LineSegment{
				X1: ends[0][0], Y1: ends[0][1],
				X2: ends[1][0], Y2: ends[1][1],
			})
		}
	}
	return segments
}

// walker steps along a line in fixed point: one pixel per step along the
// major axis, a fractional step along the minor axis.
type walker struct {
	x0, y0 int
	dx, dy int
	xMajor bool
}

func newWalker(x, y int, a, b float64) walker {
	wk := walker{x0: x, y0: y}
	if math.Abs(a) > math.Abs(b) {
		wk.xMajor = true
		wk.dx = 1
		if a <= 0 {
			wk.dx = -1
		}
		wk.dy = int(math.RoundToEven(b * (1 << fixedShift) / math.Abs(a)))
		wk.y0 = y<<fixedShift + 1<<(fixedShift-1)
	} else {
		wk.dy = 1
		if b <= 0 {
			wk.dy = -1
		}
		wk.dx = int(math.RoundToEven(a * (1 << fixedShift) / math.Abs(b)))
		wk.x0 = x<<fixedShift + 1<<(fixedShift-1)
	}
	return wk
}

// each visits pixels from the start point in direction k (0 forward, 1
// backward) until fn returns false or the walk leaves the image.
func (wk walker) each(k, w, h int, fn func(px, py int) bool) {
	x, y, dx, dy := wk.x0, wk.y0, wk.dx, wk.dy
	if k > 0 {
		dx, dy = -dx, -dy
	}
	for ; ; x, y = x+dx, y+dy {
		px, py := x, y>>fixedShift
		if !wk.xMajor {
			px, py = x>>fixedShift, y
		}
		if px < 0 || px >= w || py < 0 || py >= h {
			return
		}
		if !fn(px, py) {
			return
		}
	}
}

// Merge tolerances for MergeSegments.
const (
	mergeAngleDegrees = 3.0
	mergeDistance     = 3.0
)

// MergeSegments folds segments that describe the same stroke into one.
//
// Two segments merge when their directions differ by at most 3 degrees, every
// endpoint of the shorter lies within 3 pixels of the longer's line, and
// their extents along that line overlap or leave a gap of at most maxGap.
// The merged segment runs along the longer segment's direction through the
// length-weighted mean of the two midpoints, spanning the extreme projections
// of all four endpoints. Merging repeats until no pair qualifies.
func MergeSegments(segs []LineSegment, maxGap int) []LineSegment {
	out := append([]LineSegment(nil), segs...)
	for merged := true; merged; {
		merged = false
		for i := 0; i < len(out) && !merged; i++ {
			for j := i + 1; j < len(out); j++ {
				if m, ok := mergePair(out[i], out[j], float64(maxGap)); ok {
					out[i] = m
					out = append(out[:j], out[j+1:]...)
					merged = true
					break
				}
			}
		}
	}
	if out == nil {
		out = []LineSegment{}
	}
	return out
}

func mergePair(a, b LineSegment, maxGap float64) (LineSegment, bool) {
	if b.Length() > a.Length() {
		a, b = b, a
	}
	la, lb := a.Length(), b.Length()
	if la == 0 {
		return LineSegment{}, false
	}

	diff := math.Mod(math.Abs(a.AngleDegrees()-b.AngleDegrees()), 180)
	if math.Min(diff, 180-diff) > mergeAngleDegrees {
		return LineSegment{}, false
	}

	dir := r2.Unit(r2.Sub(a.end(), a.start()))
	for _, p := range []r2.Vec{b.start(), b.end()} {
		if math.Abs(r2.Cross(dir, r2.Sub(p, a.start()))) > mergeDistance {
			return LineSegment{}, false
		}
	}

	// Extents of b along a's direction, relative to a's start
	t0 := r2.Dot(dir, r2.Sub(b.start(), a.start()))
	t1 := r2.Dot(dir, r2.Sub(b.end(), a.start()))
	lo, hi := math.Min(t0, t1), math.Max(t0, t1)
	if lo > la+maxGap || hi < -maxGap {
		return LineSegment{}, false
	}

	midA := r2.Scale(0.5, r2.Add(a.start(), a.end()))
	midB := r2.Scale(0.5, r2.Add(b.start(), b.end()))
	origin := r2.Scale(1/(la+lb), r2.Add(r2.Scale(la, midA), r2.Scale(lb, midB)))

	tMin, tMax := math.Inf(1), math.Inf(-1)
	for _, p := range []r2.Vec{a.start(), a.end(), b.start(), b.end()} {
		t := r2.Dot(dir, r2.Sub(p, origin))
		tMin = math.Min(tMin, t)
		tMax = math.Max(tMax, t)
	}
	p1 := r2.Add(origin, r2.Scale(tMin, dir))
	p2 := r2.Add(origin, r2.Scale(tMax, dir))

	return LineSegment{
		X1: int(math.Round(p1.X)), Y1: int(math.Round(p1.Y)),
		X2: int(math.Round(p2.X)), Y2: int(math.Round(p2.Y)),
	}, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
