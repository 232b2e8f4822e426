//go:build gocv

package detection

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ironsheep/cube-vision/internal/imaging"
)

// HoughSegmentsOpenCV runs cv::HoughLinesP with the same constants as
// HoughSegments and merges the result the same way. OpenCV draws its random
// order from its own generator, so individual segments may differ; the merged
// set should describe the same strokes.
func HoughSegmentsOpenCV(edges *imaging.Plane, cfg LineConfig) ([]LineSegment, error) {
	gray := edges.GrayImage()
	src, err := gocv.NewMatFromBytes(gray.Rect.Dy(), gray.Rect.Dx(), gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap edge map: %w", err)
	}
	defer src.Close()

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(src, &lines, RhoResolution, ThetaResolution,
		cfg.Threshold, MinSegmentLength, MaxSegmentGap)

	segs := make([]LineSegment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segs = append(segs, LineSegment{X1: int(v[0]), Y1: int(v[1]), X2: int(v[2]), Y2: int(v[3])})
	}
	return MergeSegments(segs, MaxSegmentGap), nil
}
