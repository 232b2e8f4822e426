package config

import (
	"fmt"

	"github.com/ironsheep/cube-vision/internal/detection"
	"github.com/ironsheep/cube-vision/internal/imaging"
	"github.com/ironsheep/cube-vision/internal/overlay"
)

// EdgeInput selects the plane the edge stage reads.
type EdgeInput int

const (
	EdgeInputMask EdgeInput = iota // cleaned chromatic mask
	EdgeInputGray                  // grayscale of the normalized frame
)

// String returns the name used in parameter files.
func (e EdgeInput) String() string {
	switch e {
	case EdgeInputMask:
		return "mask"
	case EdgeInputGray:
		return "gray"
	default:
		return fmt.Sprintf("input(%d)", int(e))
	}
}

// Snapshot is the complete configuration for one frame. It is a plain value:
// copies never share state with the registry.
type Snapshot struct {
	DisplayLevel overlay.DisplayLevel      `json:"display_level"`
	ColorModel   imaging.ColorModel        `json:"color_model"`
	Interval     imaging.ThresholdInterval `json:"interval"`
	Morphology   imaging.MorphologyConfig  `json:"morphology"`
	Edge         imaging.EdgeConfig        `json:"edge"`
	EdgeInput    EdgeInput                 `json:"edge_input"`
	Lines        detection.LineConfig      `json:"lines"`
}

// SnapshotProvider yields the configuration for the next frame.
type SnapshotProvider interface {
	Snapshot() Snapshot
}

// SnapshotFunc adapts a function to SnapshotProvider.
type SnapshotFunc func() Snapshot

// Snapshot calls f().
func (f SnapshotFunc) Snapshot() Snapshot { return f() }

// DefaultSnapshot returns the snapshot of a fresh registry.
func DefaultSnapshot() Snapshot {
	return NewRegistry().Snapshot()
}

// snapshotFrom builds a snapshot from coerced values. The caller holds the lock.
func snapshotFrom(v map[string]any) Snapshot {
	geti := func(name string) int { return v[name].(int) }

	s := Snapshot{
		DisplayLevel: overlay.DisplayLevel(geti(ParamDisplayLevel)),
		Morphology: imaging.MorphologyConfig{
			Erode:  geti(ParamErosion),
			Dilate: geti(ParamDilation),
		},
		Edge: imaging.EdgeConfig{
			Threshold1: v[ParamThresh1].(float64),
			Threshold2: v[ParamThresh2].(float64),
			Aperture:   geti(ParamAperture),
			L2Gradient: v[ParamL2Grad].(bool),
		},
		Lines: detection.LineConfig{Threshold: geti(ParamLineThresh)},
	}

	if v[ParamEdgeInput].(string) == "gray" {
		s.EdgeInput = EdgeInputGray
	}

	if v[ParamColorModel].(string) == "hsv" {
		s.ColorModel = imaging.ModelHSV
		s.Interval = imaging.ThresholdInterval{
			Min: [3]int{geti(ParamMinH), geti(ParamMinS), geti(ParamMinV)},
			Max: [3]int{geti(ParamMaxH), geti(ParamMaxS), geti(ParamMaxV)},
		}
	} else {
		s.ColorModel = imaging.ModelRGB
		s.Interval = imaging.ThresholdInterval{
			Min: [3]int{geti(ParamMinR), geti(ParamMinG), geti(ParamMinB)},
			Max: [3]int{geti(ParamMaxR), geti(ParamMaxG), geti(ParamMaxB)},
		}
	}
	return s
}
