package pipeline

import (
	"fmt"
	"image"

	"github.com/ironsheep/cube-vision/internal/config"
	"github.com/ironsheep/cube-vision/internal/detection"
	"github.com/ironsheep/cube-vision/internal/frame"
	"github.com/ironsheep/cube-vision/internal/imaging"
	"github.com/ironsheep/cube-vision/internal/overlay"
)

// Artifacts are the intermediate planes of one frame.
type Artifacts struct {
	Color   *imaging.Plane // normalized frame in the snapshot's color model
	Raw     *imaging.Plane // grayscale of the normalized frame
	Mask    *imaging.Plane // chromatic filter output
	Cleaned *imaging.Plane // mask after erosion and dilation
	Edges   *imaging.Plane
}

// Result is everything Process computed for one frame.
type Result struct {
	Width     int
	Height    int
	Artifacts Artifacts
	Segments  []detection.LineSegment
	Snapshot  config.Snapshot
}

// Pipeline runs the stages and renders results.
type Pipeline struct {
	compositor *overlay.Compositor
}

// New returns a pipeline rendering with c, or with overlay.NewCompositor when
// c is nil.
func New(c *overlay.Compositor) *Pipeline {
	if c == nil {
		c = overlay.NewCompositor()
	}
	return &Pipeline{compositor: c}
}

// Process runs every stage on f with the given snapshot.
func (p *Pipeline) Process(f *frame.Frame, snap config.Snapshot) (*Result, error) {
	rgb, err := imaging.ToRGB(f)
	if err != nil {
		return nil, err
	}
	return p.ProcessRGB(rgb, snap)
}

// ProcessRGB runs every stage on an already normalized RGB plane.
func (p *Pipeline) ProcessRGB(rgb *imaging.Plane, snap config.Snapshot) (*Result, error) {
	// Validate first so a bad aperture costs no work
	if err := snap.Edge.Validate(); err != nil {
		return nil, fmt.Errorf("failed to process frame: %w", err)
	}

	color, err := imaging.Convert(rgb, snap.ColorModel)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize color: %w", err)
	}
	raw, err := imaging.Luma(rgb)
	if err != nil {
		return nil, fmt.Errorf("failed to compute grayscale: %w", err)
	}
	mask, err := imaging.InRange(color, snap.Interval)
	if err != nil {
		return nil, fmt.Errorf("failed to filter colors: %w", err)
	}
	cleaned, err := imaging.Cleanup(mask, snap.Morphology)
	if err != nil {
		return nil, fmt.Errorf("failed to clean mask: %w", err)
	}

	edgeSrc := cleaned
	if snap.EdgeInput == config.EdgeInputGray {
		edgeSrc = raw
	}
	edges, err := imaging.Canny(edgeSrc, snap.Edge)
	if err != nil {
		return nil, fmt.Errorf("failed to detect edges: %w", err)
	}

	return &Result{
		Width:  rgb.Width,
		Height: rgb.Height,
		Artifacts: Artifacts{
			Color:   color,
			Raw:     raw,
			Mask:    mask,
			Cleaned: cleaned,
			Edges:   edges,
		},
		Segments: detection.HoughSegments(edges, snap.Lines),
		Snapshot: snap,
	}, nil
}

// OutputSize returns the output geometry for res.
func (res *Result) OutputSize() (int, int) {
	return overlay.OutputSize(res.Width, res.Height)
}

// Render composes res into dst, which must be res.OutputSize().
func (p *Pipeline) Render(dst *image.RGBA, res *Result) error {
	return p.compositor.Render(dst, overlay.Scene{
		Level:    res.Snapshot.DisplayLevel,
		Raw:      res.Artifacts.Raw,
		Filtered: res.Artifacts.Cleaned,
		Edges:    res.Artifacts.Edges,
		Segments: res.Segments,
	})
}

// Run processes f and renders it into a newly allocated output image.
func (p *Pipeline) Run(f *frame.Frame, snap config.Snapshot) (*image.RGBA, *Result, error) {
	res, err := p.Process(f, snap)
	if err != nil {
		return nil, nil, err
	}
	w, h := res.OutputSize()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := p.Render(dst, res); err != nil {
		return nil, nil, err
	}
	return dst, res, nil
}
