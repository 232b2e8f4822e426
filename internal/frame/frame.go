package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for a pixel format with no conversion path.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrBufferSizeMismatch is returned when a buffer does not match its declared geometry.
	ErrBufferSizeMismatch = errors.New("buffer size does not match geometry")
)

// PixelFormat tags the memory layout of a Frame.
type PixelFormat int

const (
	FormatGray PixelFormat = iota
	FormatRGB24
	FormatYUYV
)

// String returns the lowercase format name used in flags and tool arguments.
func (f PixelFormat) String() string {
	switch f {
	case FormatGray:
		return "gray"
	case FormatRGB24:
		return "rgb24"
	case FormatYUYV:
		return "yuyv"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// BytesPerPixel returns the average number of bytes one pixel occupies.
func (f PixelFormat) BytesPerPixel() (int, error) {
	switch f {
	case FormatGray:
		return 1, nil
	case FormatRGB24:
		return 3, nil
	case FormatYUYV:
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// ParseFormat maps a format name ("gray", "rgb24", "yuyv") to a PixelFormat.
func ParseFormat(name string) (PixelFormat, error) {
	switch name {
	case "gray", "grey":
		return FormatGray, nil
	case "rgb", "rgb24":
		return FormatRGB24, nil
	case "yuyv", "yuv422":
		return FormatYUYV, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// Frame is one raw image from the camera.
type Frame struct {
	Width  int
	Height int
	Format PixelFormat
	Pix    []byte

	// Sequence is assigned by the Source, starting at 1.
	Sequence uint64
}

// New allocates a zeroed frame of the given geometry.
func New(width, height int, format PixelFormat) (*Frame, error) {
	bpp, err := format.BytesPerPixel()
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBufferSizeMismatch, width, height)
	}
	f := &Frame{
		Width:  width,
		Height: height,
		Format: format,
		Pix:    make([]byte, width*height*bpp),
	}
	return f, f.Validate()
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int {
	bpp, err := f.Format.BytesPerPixel()
	if err != nil {
		return 0
	}
	return f.Width * bpp
}

// Validate checks that the declared geometry and format match the buffer.
func (f *Frame) Validate() error {
	if _, err := f.Format.BytesPerPixel(); err != nil {
		return err
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: non-positive dimensions %dx%d", ErrBufferSizeMismatch, f.Width, f.Height)
	}
	if f.Format == FormatYUYV && f.Width%2 != 0 {
		return fmt.Errorf("%w: yuyv width %d is odd", ErrBufferSizeMismatch, f.Width)
	}
	if want := f.Stride() * f.Height; len(f.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d for %dx%d %s",
			ErrBufferSizeMismatch, len(f.Pix), want, f.Width, f.Height, f.Format)
	}
	return nil
}
