package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/cube-vision/internal/detection"
)

// Header text layout for basicfont.Face7x13 (ascent 11, descent 2).
const (
	textMarginX    = 2
	titleBaseline  = 14
	statusBaseline = 32
)

// drawHeader writes the title and status lines in white, clipped to header.
func drawHeader(dst *image.RGBA, header image.Rectangle, title, status string) {
	band, ok := dst.SubImage(header).(*image.RGBA)
	if !ok {
		return
	}
	d := &font.Drawer{
		Dst:  band,
		Src:  image.White,
		Face: basicfont.Face7x13,
	}
	for _, line := range []struct {
		text     string
		baseline int
	}{
		{title, titleBaseline},
		{status, statusBaseline},
	} {
		if line.text == "" {
			continue
		}
		d.Dot = fixed.P(header.Min.X+textMarginX, header.Min.Y+line.baseline)
		d.DrawString(line.text)
	}
}

// drawSegment draws s with Bresenham's algorithm, offset to the content
// rectangle and clipped to it.
func drawSegment(dst *image.RGBA, content image.Rectangle, s detection.LineSegment, c color.RGBA) {
	x0, y0 := s.X1+content.Min.X, s.Y1+content.Min.Y
	x1, y1 := s.X2+content.Min.X, s.Y2+content.Min.Y

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		if (image.Point{X: x0, Y: y0}).In(content) {
			dst.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
