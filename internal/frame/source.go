package frame

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
)

// Source is the ingest contract. Acquire blocks until a frame is available and
// yields ownership of a read-only buffer; it returns io.EOF once the source is
// exhausted. Release hands the buffer back to the source.
type Source interface {
	Acquire(ctx context.Context) (*Frame, error)
	Release(f *Frame)
}

// FileSourceOptions configures a FileSource.
type FileSourceOptions struct {
	// Width and Height are the emulated sensor geometry. Zero keeps each
	// image's native size.
	Width  int
	Height int

	// Format is the pixel format frames are packed into.
	Format PixelFormat

	// Loop restarts from the first path instead of returning io.EOF.
	Loop bool

	// Cache is shared with other users of the same files. A private cache is
	// created when nil.
	Cache *ImageCache
}

// FileSource replays still images from disk as if they came from a camera.
type FileSource struct {
	mu          sync.Mutex
	paths       []string
	opts        FileSourceOptions
	next        int
	seq         uint64
	outstanding map[*Frame]struct{}
}

// NewFileSource creates a source over the given image paths, in order.
func NewFileSource(paths []string, opts FileSourceOptions) (*FileSource, error) {
	if len(paths) == 0 {
		return nil, errors.New("file source needs at least one image path")
	}
	if _, err := opts.Format.BytesPerPixel(); err != nil {
		return nil, err
	}
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("invalid sensor geometry %dx%d", opts.Width, opts.Height)
	}
	if opts.Cache == nil {
		opts.Cache = NewImageCache()
	}
	return &FileSource{
		paths:       append([]string(nil), paths...),
		opts:        opts,
		outstanding: make(map[*Frame]struct{}),
	}, nil
}

// Acquire loads, resizes and packs the next image.
func (s *FileSource) Acquire(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.paths) {
		if !s.opts.Loop {
			return nil, io.EOF
		}
		s.next = 0
	}
	path := s.paths[s.next]
	s.next++

	img, err := s.opts.Cache.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire %s: %w", path, err)
	}

	f, err := FromImage(s.fit(img), s.opts.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", path, err)
	}
	s.seq++
	f.Sequence = s.seq
	s.outstanding[f] = struct{}{}
	return f, nil
}

// Format returns the pixel format frames are packed into.
func (s *FileSource) Format() PixelFormat { return s.opts.Format }

// fit scales img to the sensor geometry. A zero dimension is derived from the
// other one so the aspect ratio is kept.
func (s *FileSource) fit(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := s.opts.Width, s.opts.Height
	if (w == 0 && h == 0) || (w == b.Dx() && h == b.Dy()) {
		return clone.AsRGBA(img)
	}
	return clone.AsRGBA(imaging.Resize(img, w, h, imaging.Lanczos))
}

// Release returns a frame to the source. Releasing a frame twice, or one the
// source never handed out, is a no-op.
func (s *FileSource) Release(f *Frame) {
	s.mu.Lock()
	delete(s.outstanding, f)
	s.mu.Unlock()
}

// Outstanding returns the number of acquired frames not yet released.
func (s *FileSource) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outstanding)
}
