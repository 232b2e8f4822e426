package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

var (
	// ErrUnknownParam is returned for a parameter name that is not registered.
	ErrUnknownParam = errors.New("unknown parameter")

	// ErrInvalidValue is returned when a value cannot be coerced to the parameter's kind.
	ErrInvalidValue = errors.New("invalid parameter value")
)

// Kind is the value type of a parameter.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindEnum
)

// String returns the kind name shown in parameter listings.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText lets listings carry the kind name instead of its number.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Param describes one tunable. Min, Max and Odd apply to KindInt only;
// Choices to KindEnum only.
type Param struct {
	Name        string   `json:"name"`
	Kind        Kind     `json:"kind"`
	Description string   `json:"description"`
	Default     any      `json:"default"`
	Min         int      `json:"min,omitempty"`
	Max         int      `json:"max,omitempty"`
	Odd         bool     `json:"odd,omitempty"`
	Choices     []string `json:"choices,omitempty"`
}

// Parameter names.
const (
	ParamDisplayLevel = "displayLevel"
	ParamColorModel   = "colorModel"
	ParamErosion      = "erosionIt"
	ParamDilation     = "dilationIt"
	ParamMinR         = "min_r"
	ParamMinG         = "min_g"
	ParamMinB         = "min_b"
	ParamMaxR         = "max_r"
	ParamMaxG         = "max_g"
	ParamMaxB         = "max_b"
	ParamMinH         = "min_h"
	ParamMinS         = "min_s"
	ParamMinV         = "min_v"
	ParamMaxH         = "max_h"
	ParamMaxS         = "max_s"
	ParamMaxV         = "max_v"
	ParamThresh1      = "thresh1"
	ParamThresh2      = "thresh2"
	ParamAperture     = "aperture"
	ParamL2Grad       = "l2grad"
	ParamLineThresh   = "line_thresh"
	ParamEdgeInput    = "edgeInput"
)

func intParam(name, desc string, def, min, max int) Param {
	return Param{Name: name, Kind: KindInt, Description: desc, Default: def, Min: min, Max: max}
}

// oddParam is an integer parameter that rejects even values. Min and Max must
// be odd so that clamping keeps a value odd.
func oddParam(name, desc string, def, min, max int) Param {
	p := intParam(name, desc, def, min, max)
	p.Odd = true
	return p
}

// DefaultParams returns the parameter table in display order.
func DefaultParams() []Param {
	return []Param{
		intParam(ParamDisplayLevel, "Processing step shown below the header: 0 raw, 1 filtered, 2 edges, 3 lines", 3, 0, 3),
		{Name: ParamColorModel, Kind: KindEnum, Description: "Color model the chromatic filter works in", Default: "rgb", Choices: []string{"rgb", "hsv"}},
		intParam(ParamErosion, "Number of erosion passes", 1, 0, 8),
		intParam(ParamDilation, "Number of dilation passes", 1, 0, 8),
		intParam(ParamMinR, "Minimum red (RGB model)", 127, 0, 255),
		intParam(ParamMinG, "Minimum green (RGB model)", 127, 0, 255),
		intParam(ParamMinB, "Minimum blue (RGB model)", 20, 0, 255),
		intParam(ParamMaxR, "Maximum red (RGB model)", 255, 0, 255),
		intParam(ParamMaxG, "Maximum green (RGB model)", 255, 0, 255),
		intParam(ParamMaxB, "Maximum blue (RGB model)", 150, 0, 255),
		intParam(ParamMinH, "Minimum hue, degrees halved (HSV model)", 20, 0, 180),
		intParam(ParamMinS, "Minimum saturation (HSV model)", 100, 0, 255),
		intParam(ParamMinV, "Minimum value (HSV model)", 100, 0, 255),
		intParam(ParamMaxH, "Maximum hue, degrees halved (HSV model)", 35, 0, 180),
		intParam(ParamMaxS, "Maximum saturation (HSV model)", 255, 0, 255),
		intParam(ParamMaxV, "Maximum value (HSV model)", 255, 0, 255),
		{Name: ParamThresh1, Kind: KindFloat, Description: "First hysteresis threshold for edge detection", Default: 50.0},
		{Name: ParamThresh2, Kind: KindFloat, Description: "Second hysteresis threshold for edge detection", Default: 150.0},
		oddParam(ParamAperture, "Sobel aperture size, odd", 3, 3, 53),
		{Name: ParamL2Grad, Kind: KindBool, Description: "Use the L2 norm for gradient magnitude", Default: false},
		intParam(ParamLineThresh, "Accumulator votes a line needs", 100, 0, 255),
		{Name: ParamEdgeInput, Kind: KindEnum, Description: "Plane fed to edge detection: the cleaned mask or the grayscale frame", Default: "mask", Choices: []string{"mask", "gray"}},
	}
}

// coerce converts v to the parameter's kind and clamps integers into range.
func (p Param) coerce(v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: %s: nil", ErrInvalidValue, p.Name)
	}

	switch p.Kind {
	case KindInt:
		// Round floats rather than truncate so 2.9999 from a slider is 3
		if f, ok := v.(float64); ok {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, p.Name, v)
			}
			v = math.Round(f)
		}
		var n int
		if err := mapstructure.WeakDecode(v, &n); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, p.Name, err)
		}
		n = min(max(n, p.Min), p.Max)
		if p.Odd && n%2 == 0 {
			return nil, fmt.Errorf("%w: %s: %d is even", ErrInvalidValue, p.Name, n)
		}
		return n, nil

	case KindFloat:
		var f float64
		if err := mapstructure.WeakDecode(v, &f); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, p.Name, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, p.Name, v)
		}
		return f, nil

	case KindBool:
		var b bool
		if err := mapstructure.WeakDecode(v, &b); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, p.Name, err)
		}
		return b, nil

	case KindEnum:
		var s string
		if err := mapstructure.WeakDecode(v, &s); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, p.Name, err)
		}
		s = strings.ToLower(strings.TrimSpace(s))
		for _, c := range p.Choices {
			if s == c {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: %s: %q not one of %v", ErrInvalidValue, p.Name, s, p.Choices)
	}
	return nil, fmt.Errorf("%w: %s has unknown kind %s", ErrInvalidValue, p.Name, p.Kind)
}
