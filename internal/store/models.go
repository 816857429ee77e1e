package store

type (
	// Run represents one batch invocation
	Run struct {
		ID        int64
		StartedAt string
		Params    string // free-form parameter summary
	}

	// Image represents a segmented source image
	Image struct {
		ID   int64
		URI  string
		Rows int
		Cols int
		// Unique constraint on (URI, Rows, Cols); stored as height and width
	}

	// Segmentation represents one scored label map
	Segmentation struct {
		ID      int64
		RunID   int64
		ImageID int64
		Method  string
		K       int
		Score   float64
		Labels  []int // row-major, Rows*Cols of the image
		// Unique constraint on (RunID, ImageID, Method, K)
	}

	// Score is a row of the scores_detailed view
	Score struct {
		ID        int64
		RunID     int64
		StartedAt string
		ImageURI  string
		Rows      int
		Cols      int
		Method    string
		K         int
		Score     float64
	}
)
