package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/cube-vision/internal/config"
	"github.com/ironsheep/cube-vision/internal/frame"
	"github.com/ironsheep/cube-vision/internal/imaging"
)

// Stats counts what a Runner has done so far.
type Stats struct {
	Processed    uint64        `json:"processed"`
	Failed       uint64        `json:"failed"`
	LastSegments int           `json:"last_segments"`
	LastDuration time.Duration `json:"last_duration"`
}

// Runner moves frames from a source through the pipeline into a sink.
type Runner struct {
	source   frame.Source
	sink     frame.Sink
	params   config.SnapshotProvider
	pipeline *Pipeline
	logger   *logrus.Logger

	// OnFrame, if set, is called with each result after its output was sent.
	// It runs on the goroutine calling Step.
	OnFrame func(*Result)

	mu    sync.Mutex
	stats Stats
}

// NewRunner returns a runner. A nil pipeline uses New(nil).
func NewRunner(src frame.Source, sink frame.Sink, params config.SnapshotProvider, p *Pipeline, logger *logrus.Logger) *Runner {
	if p == nil {
		p = New(nil)
	}
	return &Runner{
		source:   src,
		sink:     sink,
		params:   params,
		pipeline: p,
		logger:   logger,
	}
}

// Run processes frames until the source is exhausted (returns nil) or ctx is
// done (returns ctx.Err()). Failed frames are logged and skipped.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.Step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			r.logger.WithField("processed", r.Stats().Processed).Info("frame source exhausted")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			r.logger.WithError(err).Warn("frame skipped")
		}
	}
}

// Step handles exactly one frame. It returns io.EOF when the source is
// exhausted and the frame's error when it failed; a failed frame sends
// nothing to the sink.
func (r *Runner) Step(ctx context.Context) error {
	f, err := r.source.Acquire(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return err
		}
		r.fail()
		return fmt.Errorf("failed to acquire frame: %w", err)
	}

	start := time.Now()
	seq := f.Sequence
	rgb, err := imaging.ToRGB(f)
	r.source.Release(f)
	if err != nil {
		r.fail()
		return fmt.Errorf("frame %d: %w", seq, err)
	}

	snap := r.params.Snapshot()
	res, err := r.pipeline.ProcessRGB(rgb, snap)
	if err != nil {
		r.fail()
		return fmt.Errorf("frame %d: %w", seq, err)
	}

	w, h := res.OutputSize()
	out := r.sink.Allocate(w, h)
	if err := r.pipeline.Render(out, res); err != nil {
		r.fail()
		return fmt.Errorf("frame %d: %w", seq, err)
	}
	if err := r.sink.Send(out); err != nil {
		r.fail()
		return fmt.Errorf("frame %d: failed to send output: %w", seq, err)
	}

	elapsed := time.Since(start)
	r.mu.Lock()
	r.stats.Processed++
	r.stats.LastSegments = len(res.Segments)
	r.stats.LastDuration = elapsed
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"frame":    seq,
		"level":    snap.DisplayLevel,
		"segments": len(res.Segments),
		"elapsed":  elapsed,
	}).Debug("frame processed")

	if r.OnFrame != nil {
		r.OnFrame(res)
	}
	return nil
}

func (r *Runner) fail() {
	r.mu.Lock()
	r.stats.Failed++
	r.mu.Unlock()
}

// Stats returns a copy of the counters.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
