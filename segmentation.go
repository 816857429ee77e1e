// Package segmentation splits grayscale images into regions with k-means on
// pixel intensities and with a ratio cut of the pixel affinity graph, and
// scores every labeling with the silhouette coefficient.
package segmentation

import (
	"context"
	"fmt"
	"image"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/yyyoichi/segmentation_zero/internal/graph"
	"github.com/yyyoichi/segmentation_zero/internal/kmeans"
	"github.com/yyyoichi/segmentation_zero/internal/quality"
	"github.com/yyyoichi/segmentation_zero/internal/raster"
	"github.com/yyyoichi/segmentation_zero/internal/spectral"
)

var (
	ErrInvalidConfig     = kmeans.ErrInvalidConfig
	ErrInvalidInput      = graph.ErrInvalidInput
	ErrDegenerateCluster = kmeans.ErrDegenerateCluster
	ErrSpectralFailure   = spectral.ErrSpectralFailure
)

type (
	// Grid is a row-major grayscale intensity raster.
	Grid = raster.Grid
	// Labels is a row-major label map with the shape of its Grid.
	Labels = raster.Labels
)

// GridFromImage converts src to luma intensities.
func GridFromImage(src image.Image) Grid {
	return raster.FromImage(src)
}

// Segmentation is one labeling of an image.
type Segmentation struct {
	Method Method
	K      int
	Labels Labels
	Score  float64
}

// Title is the caption used when the labeling is displayed.
func (s Segmentation) Title() string {
	return fmt.Sprintf("%s %d Clusters", s.Method, s.K)
}

// ScoreLine formats the silhouette score for reports.
func (s Segmentation) ScoreLine() string {
	return fmt.Sprintf("Silhouette Score %s %d: %.2f", s.Method, s.K, s.Score)
}

// Image is a named grid handed to Run.
type Image struct {
	Name string
	Grid Grid
}

// Result holds every labeling of one image.
type Result struct {
	Name          string
	Grid          Grid
	Segmentations []Segmentation
}

// Skipped records an image that failed to segment.
type Skipped struct {
	Name string
	Err  error
}

type Report struct {
	Results []Result
	Skipped []Skipped
}

type Segmenter struct {
	counts      []int
	methods     []Method
	maxIter     int
	seed        int64
	tol         float64
	temperature float64
	policy      kmeans.Policy
	solver      spectral.EigenSolver
	downscale   int
	logger      *log.Logger
}

// New initializes a Segmenter.
// For default values, refer to the init function.
func New(opts ...Option) (*Segmenter, error) {
	s := new(Segmenter)
	if err := s.init(opts...); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Segmenter) init(opts ...Option) error {
	s.counts = []int{3, 6}
	s.methods = slices.Clone(Methods)
	s.maxIter = 300
	s.seed = 42
	s.tol = 1e-4
	s.temperature = graph.DefaultTemperature
	s.policy = kmeans.PolicyFarthestPoint
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return err
		}
	}
	if s.solver == nil {
		s.solver = spectral.NewLanczos(uint64(s.seed))
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return nil
}

// Segment labels grid with every configured method and cluster count.
//
// Process:
//  1. Optionally downscales the grid.
//  2. For each cluster count, runs k-means on the intensities and the ratio
//     cut on the affinity graph. The ratio cut is computed once per image.
//  3. Expands the labels to the original shape and scores them against the
//     original intensities.
//
// Any failure aborts the whole image.
func (s *Segmenter) Segment(ctx context.Context, grid Grid) ([]Segmentation, error) {
	if grid.Empty() || len(grid.Data) != grid.Len() {
		return nil, fmt.Errorf("%w: grid shape %dx%d with %d values", ErrInvalidInput, grid.Rows, grid.Cols, len(grid.Data))
	}
	work := raster.Downscale(grid, s.downscale)
	features := grid.Features()

	var cut *Labels
	out := make([]Segmentation, 0, len(s.counts)*len(s.methods))
	for _, k := range s.counts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, m := range s.methods {
			var labels Labels
			var err error
			switch m {
			case MethodKMeans:
				labels, err = s.kmeans(work, k)
			case MethodRatioCut:
				if cut == nil {
					var l Labels
					if l, err = s.ratioCut(work); err == nil {
						cut = &l
					}
				}
				if cut != nil {
					labels = Labels{Rows: cut.Rows, Cols: cut.Cols, Data: slices.Clone(cut.Data)}
				}
			default:
				err = fmt.Errorf("%w: %v", ErrInvalidConfig, m)
			}
			if err != nil {
				return nil, fmt.Errorf("%s %d: %w", m, k, err)
			}

			labels, err = raster.Expand(labels, grid.Rows, grid.Cols, s.downscale)
			if err != nil {
				return nil, fmt.Errorf("%s %d: %w", m, k, err)
			}
			score, err := quality.Silhouette(features, labels.Data)
			if err != nil {
				return nil, fmt.Errorf("%s %d: %w", m, k, err)
			}
			s.logger.Debug("segmented", "method", m, "k", k, "groups", labels.Distinct(), "score", score)
			out = append(out, Segmentation{Method: m, K: k, Labels: labels, Score: score})
		}
	}
	return out, nil
}

func (s *Segmenter) kmeans(grid Grid, k int) (Labels, error) {
	c, err := kmeans.New(k,
		kmeans.WithMaxIter(s.maxIter),
		kmeans.WithSeed(s.seed),
		kmeans.WithTolerance(s.tol),
		kmeans.WithEmptyClusterPolicy(s.policy),
	)
	if err != nil {
		return Labels{}, err
	}
	res, err := c.Fit(grid.Features())
	if err != nil {
		return Labels{}, err
	}
	if !res.Converged {
		s.logger.Debug("k-means stopped at the iteration limit", "k", k, "iterations", res.Iterations)
	}
	return raster.NewLabels(grid.Rows, grid.Cols, res.Labels)
}

func (s *Segmenter) ratioCut(grid Grid) (Labels, error) {
	g, err := graph.Build(grid, s.temperature)
	if err != nil {
		return Labels{}, err
	}
	s.logger.Debug("built affinity graph", "nodes", g.Len(), "nnz", g.NNZ())
	return spectral.NewPartitioner(s.solver).Partition(g, grid.Rows, grid.Cols)
}

// Run segments every image in order. Images that fail are logged and
// reported as skipped; Run only stops early when ctx is done.
func (s *Segmenter) Run(ctx context.Context, images []Image) (*Report, error) {
	report := new(Report)
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		segs, err := s.Segment(ctx, img.Grid)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			s.logger.Warn("skipping image", "name", img.Name, "err", err)
			report.Skipped = append(report.Skipped, Skipped{Name: img.Name, Err: err})
			continue
		}
		report.Results = append(report.Results, Result{Name: img.Name, Grid: img.Grid, Segmentations: segs})
	}
	return report, nil
}
