// Package imaging implements the raster stages of the cube vision pipeline.
//
// Every stage is a pure function from one Plane to a new Plane. No stage keeps
// state between calls, so the same input and configuration always produce the
// same output.
//
// # Stages
//
//  1. Color normalization: ToRGB unpacks a raw frame.Frame into a 3-channel
//     RGB Plane; Convert maps it into the configured ColorModel (RGB or HSV).
//  2. Chromatic filtering: InRange selects pixels inside a ThresholdInterval
//     and returns a binary mask.
//  3. Morphological cleanup: Cleanup erodes then dilates the mask.
//  4. Edge extraction: Canny computes Sobel gradients, thins them with
//     non-maximum suppression and links them with Hysteresis.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward.
//
// # Mask Convention
//
// Binary planes (masks and edge maps) hold 255 for set pixels and 0 for clear
// pixels, so they can be viewed directly as grayscale images.
//
// # HSV Convention
//
// HSV planes follow the 8-bit OpenCV convention: hue in [0,180) (degrees
// halved), saturation and value in [0,255]. Threshold bounds chosen with
// OpenCV-based tools therefore carry over unchanged.
//
// # Error Handling
//
// Stages return sentinel errors wrapped with context:
//   - ErrUnsupportedFormat: the frame's pixel format has no conversion path
//   - ErrUnsupportedModel: unknown ColorModel
//   - ErrChannelMismatch: a stage received a plane with the wrong channel count
//   - ErrInvalidAperture: Sobel aperture is even or outside [3,53]
//
// An inverted ThresholdInterval (min > max on a channel) is not an error: it
// selects nothing.
package imaging
