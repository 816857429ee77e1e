package bench_test

import (
	"image"
	"image/color"
	"testing"

	segmentation "github.com/yyyoichi/segmentation_zero"
	"github.com/yyyoichi/segmentation_zero/internal/spectral"
)

// BenchmarkSegment runs a table-driven set of segmentations over a 64x64 gradient.
func BenchmarkSegment(b *testing.B) {
	test := []struct {
		name string
		opts []segmentation.Option
	}{
		{name: "KMeans_3", opts: []segmentation.Option{
			segmentation.WithMethods(segmentation.MethodKMeans),
			segmentation.WithClusterCounts(3),
		}},
		{name: "KMeans_3_6", opts: []segmentation.Option{
			segmentation.WithMethods(segmentation.MethodKMeans),
			segmentation.WithClusterCounts(3, 6),
		}},
		{name: "RatioCut_Lanczos", opts: []segmentation.Option{
			segmentation.WithMethods(segmentation.MethodRatioCut),
			segmentation.WithClusterCounts(2),
		}},
		{name: "RatioCut_Dense", opts: []segmentation.Option{
			segmentation.WithMethods(segmentation.MethodRatioCut),
			segmentation.WithClusterCounts(2),
			segmentation.WithEigenSolver(spectral.Dense{}),
		}},
		{name: "All_Downscale1", opts: []segmentation.Option{
			segmentation.WithDownscale(1),
		}},
	}

	grid := segmentation.GridFromImage(createImage(64, 64))
	ctx := b.Context()

	for _, tt := range test {
		b.Run(tt.name, func(b *testing.B) {
			s, err := segmentation.New(tt.opts...)
			if err != nil {
				b.Fatalf("Failed to create Segmenter (%s): %v", tt.name, err)
			}
			for b.Loop() {
				segs, err := s.Segment(ctx, grid)
				if err != nil {
					b.Fatalf("Failed to segment (%s): %v", tt.name, err)
				}
				_ = segs
			}
		})
	}
}

// createImage creates a widthxheight test image with a two-tone gradient
func createImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			v := uint8((x * 127) / width)
			if y >= height/2 {
				v += 128
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}
