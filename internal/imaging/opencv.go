//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// The functions in this file run the same stages through OpenCV. They are
// built only with the gocv tag and serve as a reference for parity checks.

// toMat copies a plane into a new 8-bit Mat.
func toMat(p *Plane) (gocv.Mat, error) {
	typ := gocv.MatTypeCV8UC1
	if p.Channels == 3 {
		typ = gocv.MatTypeCV8UC3
	}
	m, err := gocv.NewMatFromBytes(p.Height, p.Width, typ, append([]byte(nil), p.Pix...))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap plane: %w", err)
	}
	return m, nil
}

// fromMat copies an 8-bit Mat into a new plane.
func fromMat(m gocv.Mat) *Plane {
	return &Plane{
		Width:    m.Cols(),
		Height:   m.Rows(),
		Channels: m.Channels(),
		Pix:      append([]uint8(nil), m.ToBytes()...),
	}
}

// ConvertOpenCV maps an RGB plane into model with cv::cvtColor.
func ConvertOpenCV(rgb *Plane, model ColorModel) (*Plane, error) {
	src, err := toMat(rgb)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if model == ModelRGB {
		return fromMat(src), nil
	}
	if model != ModelHSV {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.CvtColor(src, &dst, gocv.ColorRGBToHSV)
	return fromMat(dst), nil
}

// InRangeOpenCV is InRange via cv::inRange.
func InRangeOpenCV(p *Plane, iv ThresholdInterval) (*Plane, error) {
	src, err := toMat(p)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	lb := gocv.NewScalar(float64(iv.Min[0]), float64(iv.Min[1]), float64(iv.Min[2]), 0)
	ub := gocv.NewScalar(float64(iv.Max[0]), float64(iv.Max[1]), float64(iv.Max[2]), 0)
	gocv.InRangeWithScalar(src, lb, ub, &dst)
	return fromMat(dst), nil
}

// CleanupOpenCV is Cleanup via cv::erode and cv::dilate.
func CleanupOpenCV(mask *Plane, cfg MorphologyConfig) (*Plane, error) {
	out, err := toMat(mask)
	if err != nil {
		return nil, err
	}
	defer func() { out.Close() }()

	rect := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer rect.Close()
	ellipse := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3))
	defer ellipse.Close()

	for i := 0; i < cfg.Erode; i++ {
		tmp := gocv.NewMat()
		gocv.Erode(out, &tmp, rect)
		out.Close()
		out = tmp
	}
	for i := 0; i < cfg.Dilate; i++ {
		tmp := gocv.NewMat()
		gocv.Dilate(out, &tmp, ellipse)
		out.Close()
		out = tmp
	}
	return fromMat(out), nil
}

// CannyOpenCV is Canny via cv::Canny. OpenCV accepts apertures 3, 5 and 7 only.
func CannyOpenCV(src *Plane, cfg EdgeConfig) (*Plane, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := toMat(src)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.CannyWithParams(m, &dst, float32(cfg.Threshold1), float32(cfg.Threshold2), cfg.Aperture, cfg.L2Gradient)
	return fromMat(dst), nil
}
