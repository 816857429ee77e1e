package segmentation

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yyyoichi/segmentation_zero/internal/kmeans"
	"github.com/yyyoichi/segmentation_zero/internal/spectral"
)

type Option func(*Segmenter) error

// WithClusterCounts sets the cluster counts every image is segmented with.
// Default {3, 6}. The ratio cut always yields two groups whatever the count.
func WithClusterCounts(counts ...int) Option {
	return func(s *Segmenter) error {
		if len(counts) == 0 {
			return fmt.Errorf("%w: no cluster counts", ErrInvalidConfig)
		}
		for _, k := range counts {
			if k < 1 {
				return fmt.Errorf("%w: cluster count %d", ErrInvalidConfig, k)
			}
		}
		s.counts = append([]int(nil), counts...)
		return nil
	}
}

// WithMaxIter bounds the k-means iterations. Default 300.
func WithMaxIter(n int) Option {
	return func(s *Segmenter) error {
		if n < 1 {
			return fmt.Errorf("%w: max iterations %d", ErrInvalidConfig, n)
		}
		s.maxIter = n
		return nil
	}
}

// WithSeed seeds the k-means initialization and the Lanczos start vector.
// Default 42.
func WithSeed(seed int64) Option {
	return func(s *Segmenter) error {
		s.seed = seed
		return nil
	}
}

// WithTolerance sets the k-means convergence tolerance. Default 1e-4.
func WithTolerance(tol float64) Option {
	return func(s *Segmenter) error {
		if !(tol >= 0) {
			return fmt.Errorf("%w: tolerance %v", ErrInvalidConfig, tol)
		}
		s.tol = tol
		return nil
	}
}

// WithTemperature sets τ of the affinity exp(-|Δ|/τ). Default 10.
func WithTemperature(temperature float64) Option {
	return func(s *Segmenter) error {
		if !(temperature > 0) {
			return fmt.Errorf("%w: temperature %v", ErrInvalidConfig, temperature)
		}
		s.temperature = temperature
		return nil
	}
}

// WithEmptyClusterPolicy selects how k-means handles a cluster that loses all
// of its pixels. Default kmeans.PolicyFarthestPoint.
func WithEmptyClusterPolicy(p kmeans.Policy) Option {
	return func(s *Segmenter) error {
		s.policy = p
		return nil
	}
}

// WithEigenSolver replaces the Lanczos solver used by the ratio cut.
func WithEigenSolver(solver spectral.EigenSolver) Option {
	return func(s *Segmenter) error {
		if solver == nil {
			return fmt.Errorf("%w: nil eigensolver", ErrInvalidConfig)
		}
		s.solver = solver
		return nil
	}
}

// WithMethods restricts the methods that run. Default all of Methods.
func WithMethods(methods ...Method) Option {
	return func(s *Segmenter) error {
		if len(methods) == 0 {
			return fmt.Errorf("%w: no methods", ErrInvalidConfig)
		}
		for _, m := range methods {
			if m.Key() == "" {
				return fmt.Errorf("%w: %v", ErrInvalidConfig, m)
			}
		}
		s.methods = append([]Method(nil), methods...)
		return nil
	}
}

// WithDownscale halves the grid levels times before clustering and expands the
// labels back to the original shape afterwards.
func WithDownscale(levels int) Option {
	return func(s *Segmenter) error {
		if levels < 0 {
			return fmt.Errorf("%w: downscale levels %d", ErrInvalidConfig, levels)
		}
		s.downscale = levels
		return nil
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Segmenter) error {
		s.logger = logger
		return nil
	}
}
