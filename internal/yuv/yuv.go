package yuv

import (
	"image/color"
	"math"
)

// https://github.com/opencv/opencv/blob/0e88b49a53842f0f7cdc4c61b98c283be7e5057c/modules/imgproc/src/opencl/color_yuv.cl#L148-L234

const (
	yr = 0.299
	yg = 0.587
	yb = 0.114
)

// ColorToLumaBatch writes the 8-bit luma of every pixel into y.
// Values are rounded to the nearest integer like OpenCV's RGB2GRAY.
func ColorToLumaBatch(pixels []color.Color, y []float64) {
	for i, pixel := range pixels {
		r32, g32, b32, _ := pixel.RGBA()
		r := float64(r32 >> 8)
		g := float64(g32 >> 8)
		b := float64(b32 >> 8)

		y[i] = clip8(math.Round(yr*r + yg*g + yb*b))
	}
}

func clip8(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
