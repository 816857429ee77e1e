// Package raster holds row-major pixel and label buffers that carry their
// (rows, cols) shape, so that flattened vectors and 2D grids cannot be mixed up.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/yyyoichi/segmentation_zero/internal/yuv"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidShape = errors.New("raster: invalid shape")
)

// Grid is a rows x cols intensity image stored in raster scan order.
// The value of pixel (i, j) is Data[i*Cols+j].
type Grid struct {
	Rows, Cols int
	Data       []float64
}

// NewGrid wraps data as a rows x cols grid.
func NewGrid(rows, cols int, data []float64) (Grid, error) {
	if rows < 1 || cols < 1 {
		return Grid{}, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	if len(data) != rows*cols {
		return Grid{}, fmt.Errorf("%w: %d values for %dx%d", ErrInvalidShape, len(data), rows, cols)
	}
	return Grid{Rows: rows, Cols: cols, Data: data}, nil
}

// FromImage converts src into a grid of 8-bit luma values.
func FromImage(src image.Image) Grid {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	area := width * height

	pixels := make([]color.Color, area)
	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels[idx] = src.At(x, y)
			idx++
		}
	}
	g := Grid{Rows: height, Cols: width, Data: make([]float64, area)}
	yuv.ColorToLumaBatch(pixels, g.Data)
	return g
}

func (g Grid) Len() int { return g.Rows * g.Cols }

func (g Grid) At(i, j int) float64 { return g.Data[i*g.Cols+j] }

// Empty reports whether the grid has a zero dimension.
func (g Grid) Empty() bool { return g.Rows < 1 || g.Cols < 1 || len(g.Data) == 0 }

// Features returns the N x 1 feature matrix of the intensities in raster order.
// The matrix shares the grid's backing slice.
func (g Grid) Features() *mat.Dense {
	return mat.NewDense(g.Len(), 1, g.Data)
}

// Image renders the grid as an 8-bit grayscale image.
func (g Grid) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Cols, g.Rows))
	for i, v := range g.Data {
		img.Pix[(i/g.Cols)*img.Stride+i%g.Cols] = toUint8(v)
	}
	return img
}

func toUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + .5)
}

// Labels is a rows x cols map of cluster ids stored in raster scan order.
type Labels struct {
	Rows, Cols int
	Data       []int
}

// NewLabels reshapes a label vector into a rows x cols map.
// It fails if the vector length does not match the shape.
func NewLabels(rows, cols int, data []int) (Labels, error) {
	if rows < 1 || cols < 1 {
		return Labels{}, fmt.Errorf("%w: %dx%d", ErrInvalidShape, rows, cols)
	}
	if len(data) != rows*cols {
		return Labels{}, fmt.Errorf("%w: %d labels for %dx%d", ErrInvalidShape, len(data), rows, cols)
	}
	return Labels{Rows: rows, Cols: cols, Data: data}, nil
}

func (l Labels) Len() int { return l.Rows * l.Cols }

func (l Labels) At(i, j int) int { return l.Data[i*l.Cols+j] }

// Max returns the largest label, or -1 for an empty map.
func (l Labels) Max() int {
	m := -1
	for _, v := range l.Data {
		if v > m {
			m = v
		}
	}
	return m
}

// Distinct returns the number of different labels in the map.
func (l Labels) Distinct() int {
	seen := make(map[int]struct{})
	for _, v := range l.Data {
		seen[v] = struct{}{}
	}
	return len(seen)
}
