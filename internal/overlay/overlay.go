package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/cube-vision/internal/detection"
	"github.com/ironsheep/cube-vision/internal/frame"
	"github.com/ironsheep/cube-vision/internal/imaging"
)

// HeaderHeight is the height in pixels of the text band above the artifact.
const HeaderHeight = 40

// DefaultTitle is the pipeline identifier written on the first header line.
const DefaultTitle = "SPORK - 3196 | Power Cube Detection Module"

var (
	// ErrBufferSizeMismatch is returned when the output buffer or an artifact
	// does not match the declared geometry.
	ErrBufferSizeMismatch = frame.ErrBufferSizeMismatch

	// ErrInvalidLevel is returned for a DisplayLevel outside [LevelRaw, LevelLines].
	ErrInvalidLevel = errors.New("invalid display level")
)

// DisplayLevel selects the artifact shown below the header band.
type DisplayLevel int

const (
	LevelRaw      DisplayLevel = iota // normalized frame as grayscale
	LevelFiltered                     // cleaned chromatic mask
	LevelEdges                        // edge map
	LevelLines                        // edge map with segments drawn on top
)

// String returns a short name for logs.
func (l DisplayLevel) String() string {
	switch l {
	case LevelRaw:
		return "raw"
	case LevelFiltered:
		return "filtered"
	case LevelEdges:
		return "edges"
	case LevelLines:
		return "lines"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// OutputSize returns the output geometry for an input of width x height.
func OutputSize(width, height int) (int, int) {
	return width, height + HeaderHeight
}

// Scene holds everything one frame can display.
type Scene struct {
	Level    DisplayLevel
	Raw      *imaging.Plane // grayscale of the normalized frame
	Filtered *imaging.Plane // mask after morphological cleanup
	Edges    *imaging.Plane
	Segments []detection.LineSegment
}

// Compositor renders scenes into output buffers. Use NewCompositor for the
// default title and line color.
type Compositor struct {
	Title     string
	LineColor color.RGBA
}

// NewCompositor returns a compositor with the default title and line color.
func NewCompositor() *Compositor {
	return &Compositor{
		Title:     DefaultTitle,
		LineColor: color.RGBA{0, 255, 0, 255},
	}
}

// Render paints sc into dst.
//
// dst must be exactly OutputSize of the raw artifact, and the artifact chosen
// by sc.Level must share the raw artifact's geometry. Render fills dst black,
// pastes the artifact at y = HeaderHeight, draws the segments at LevelLines
// and writes the header text.
func (c *Compositor) Render(dst *image.RGBA, sc Scene) error {
	if sc.Raw == nil {
		return fmt.Errorf("%w: no raw artifact", ErrBufferSizeMismatch)
	}
	w, h := OutputSize(sc.Raw.Width, sc.Raw.Height)
	if b := dst.Bounds(); b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("%w: output is %dx%d, want %dx%d", ErrBufferSizeMismatch, b.Dx(), b.Dy(), w, h)
	}

	var art *imaging.Plane
	switch sc.Level {
	case LevelRaw:
		art = sc.Raw
	case LevelFiltered:
		art = sc.Filtered
	case LevelEdges, LevelLines:
		art = sc.Edges
	default:
		return fmt.Errorf("%w: %d", ErrInvalidLevel, int(sc.Level))
	}
	if art == nil || !sc.Raw.SameGeometry(art) {
		return fmt.Errorf("%w: %s artifact does not match %dx%d input",
			ErrBufferSizeMismatch, sc.Level, sc.Raw.Width, sc.Raw.Height)
	}

	origin := dst.Bounds().Min
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)

	content := image.Rect(0, HeaderHeight, art.Width, HeaderHeight+art.Height).Add(origin)
	draw.Draw(dst, content, art.GrayImage(), image.Point{}, draw.Src)

	if sc.Level == LevelLines {
		for _, s := range sc.Segments {
			drawSegment(dst, content, s, c.LineColor)
		}
	}

	header := image.Rect(0, 0, w, HeaderHeight).Add(origin)
	drawHeader(dst, header, c.Title, fmt.Sprintf("lvl %d | segments: %d", int(sc.Level), len(sc.Segments)))
	return nil
}

// ParseColor parses a "#RRGGBB" or "#RGB" color.
func ParseColor(hex string) (color.RGBA, error) {
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("failed to parse color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
