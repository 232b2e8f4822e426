package frame

import (
	"image"
	"image/color"
)

// YUYVPair converts one packed Y0 U Y1 V group into two RGB pixels.
// The chroma pair is shared by both pixels, as the sensor delivers it.
func YUYVPair(y0, u, y1, v uint8) (r0, g0, b0, r1, g1, b1 uint8) {
	r0, g0, b0 = color.YCbCrToRGB(y0, u, v)
	r1, g1, b1 = color.YCbCrToRGB(y1, u, v)
	return
}

// EncodeYUYV packs an image into YUYV bytes. Chroma is averaged over each
// horizontal pixel pair. An odd trailing column is duplicated.
func EncodeYUYV(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pw := w + w%2
	out := make([]byte, pw*h*2)

	for y := 0; y < h; y++ {
		row := out[y*pw*2:]
		for x := 0; x < pw; x += 2 {
			x1 := x + 1
			if x1 >= w {
				x1 = w - 1
			}
			ya, ua, va := ycbcrAt(img, b.Min.X+x, b.Min.Y+y)
			yb, ub, vb := ycbcrAt(img, b.Min.X+x1, b.Min.Y+y)
			i := x * 2
			row[i] = ya
			row[i+1] = uint8((int(ua) + int(ub) + 1) / 2)
			row[i+2] = yb
			row[i+3] = uint8((int(va) + int(vb) + 1) / 2)
		}
	}
	return out
}

func ycbcrAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// FromImage packs img into a new Frame of the requested format.
func FromImage(img image.Image, format PixelFormat) (*Frame, error) {
	b := img.Bounds()
	f, err := New(b.Dx(), b.Dy(), format)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatYUYV:
		f.Pix = EncodeYUYV(img)
	case FormatGray:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				f.Pix[y*f.Width+x] = g.Y
			}
		}
	case FormatRGB24:
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := (y*f.Width + x) * 3
				f.Pix[i] = uint8(r >> 8)
				f.Pix[i+1] = uint8(g >> 8)
				f.Pix[i+2] = uint8(bl >> 8)
			}
		}
	}
	return f, f.Validate()
}
