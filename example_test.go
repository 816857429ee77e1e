package segmentation_test

import (
	"context"
	"fmt"
	"image"
	"image/color"

	segmentation "github.com/yyyoichi/segmentation_zero"
)

func Example_segmentation() {
	// Create an 8x8 image: dark left half, bright right half
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			if x >= 4 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	s, err := segmentation.New(segmentation.WithClusterCounts(2))
	if err != nil {
		fmt.Printf("Error creating segmenter: %v\n", err)
		return
	}

	segs, err := s.Segment(context.Background(), segmentation.GridFromImage(img))
	if err != nil {
		fmt.Printf("Error segmenting image: %v\n", err)
		return
	}
	for _, seg := range segs {
		fmt.Println(seg.ScoreLine())
	}
	// Output:
	// Silhouette Score K-Means 2: 1.00
	// Silhouette Score Ratio Cut 2: 1.00
}
