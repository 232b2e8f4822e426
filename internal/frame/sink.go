package frame

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Sink is the egress contract. Allocate returns a fresh output buffer; Send
// transfers ownership of it to the sink.
type Sink interface {
	Allocate(width, height int) *image.RGBA
	Send(img *image.RGBA) error
}

// DirSink writes every output buffer as frame_NNNNNN.png inside Dir.
type DirSink struct {
	Dir string

	mu    sync.Mutex
	count int
}

// NewDirSink creates dir if needed and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirSink{Dir: dir}, nil
}

func (s *DirSink) Allocate(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func (s *DirSink) Send(img *image.RGBA) error {
	s.mu.Lock()
	s.count++
	name := filepath.Join(s.Dir, fmt.Sprintf("frame_%06d.png", s.count))
	s.mu.Unlock()

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return f.Close()
}

// Count returns the number of frames written so far.
func (s *DirSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// RawSink streams output buffers to W as packed YUYV, the device-native
// format a host on the other end of the camera link expects.
type RawSink struct {
	W io.Writer

	mu sync.Mutex
}

func (s *RawSink) Allocate(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func (s *RawSink) Send(img *image.RGBA) error {
	buf := EncodeYUYV(img)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.W.Write(buf); err != nil {
		return fmt.Errorf("failed to write yuyv frame: %w", err)
	}
	return nil
}

// MemorySink keeps every sent buffer in memory.
type MemorySink struct {
	mu     sync.Mutex
	frames []*image.RGBA
}

func (s *MemorySink) Allocate(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func (s *MemorySink) Send(img *image.RGBA) error {
	s.mu.Lock()
	s.frames = append(s.frames, img)
	s.mu.Unlock()
	return nil
}

// Frames returns the buffers received so far, oldest first.
func (s *MemorySink) Frames() []*image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*image.RGBA(nil), s.frames...)
}
