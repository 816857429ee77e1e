// Package visual renders original images and label maps side by side.
package visual

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/yyyoichi/segmentation_zero/internal/raster"
)

var (
	ErrNoPanels = errors.New("visual: nothing to render")
)

// Panel is one titled picture of a montage. Single channel images are drawn
// through Colormap; color images are drawn as they are.
type Panel struct {
	Title    string
	Image    image.Image
	Colormap string
}

type Renderer interface {
	Render(w io.Writer, panels []Panel) error
}

// Display renders images with their titles and colormaps. The three slices
// must have the same length; Display panics otherwise.
func Display(r Renderer, w io.Writer, images []image.Image, titles []string, colormaps []string) error {
	if len(images) != len(titles) || len(images) != len(colormaps) {
		panic(fmt.Sprintf("visual: %d images, %d titles and %d colormaps", len(images), len(titles), len(colormaps)))
	}
	panels := make([]Panel, len(images))
	for i := range images {
		panels[i] = Panel{Title: titles[i], Image: images[i], Colormap: colormaps[i]}
	}
	return r.Render(w, panels)
}

// LabelImage stores every label as a gray level so that colormaps stretch
// the label range.
func LabelImage(l raster.Labels) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, l.Cols, l.Rows))
	for i, v := range l.Data {
		img.Pix[(i/l.Cols)*img.Stride+i%l.Cols] = uint8(min(max(v, 0), 255))
	}
	return img
}

// intensities returns the single channel values of img, or false for color
// images.
func intensities(img image.Image) ([]float64, bool) {
	b := img.Bounds()
	switch src := img.(type) {
	case *image.Gray:
		out := make([]float64, 0, b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out = append(out, float64(src.GrayAt(x, y).Y))
			}
		}
		return out, true
	case *image.Gray16:
		out := make([]float64, 0, b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				out = append(out, float64(src.Gray16At(x, y).Y))
			}
		}
		return out, true
	}
	return nil, false
}

// luma returns the gray levels of any image.
func luma(img image.Image) []float64 {
	if v, ok := intensities(img); ok {
		return v
	}
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y))
		}
	}
	return out
}

func valueRange(v []float64) (lo, hi float64) {
	if len(v) == 0 {
		return 0, 0
	}
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return lo, hi
}

// colorize draws single channel images through the panel colormap, stretching
// their value range onto [0, 1].
func colorize(p Panel) (img *image.RGBA, mapped bool) {
	b := p.Image.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	values, ok := intensities(p.Image)
	if !ok {
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				out.Set(x, y, p.Image.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return out, false
	}

	cm := colormapOrGray(p.Colormap)
	lo, hi := valueRange(values)
	for i, v := range values {
		t := 0.0
		if hi > lo {
			t = (v - lo) / (hi - lo)
		}
		out.SetRGBA(i%b.Dx(), i/b.Dx(), cm.At(t))
	}
	return out, true
}
