package imaging

import (
	"errors"

	"github.com/ironsheep/cube-vision/internal/frame"
)

var (
	// ErrUnsupportedFormat is returned when a frame's pixel format has no conversion path.
	ErrUnsupportedFormat = frame.ErrUnsupportedFormat

	// ErrUnsupportedModel is returned for an unknown ColorModel.
	ErrUnsupportedModel = errors.New("unsupported color model")

	// ErrChannelMismatch is returned when a plane has the wrong number of channels for a stage.
	ErrChannelMismatch = errors.New("plane has wrong channel count")

	// ErrInvalidAperture is returned when the Sobel aperture is even or outside [3,53].
	ErrInvalidAperture = errors.New("aperture must be odd and within [3,53]")
)
