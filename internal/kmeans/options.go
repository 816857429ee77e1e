package kmeans

import "fmt"

// Policy decides what happens when a cluster loses all of its rows during an
// update step.
type Policy int

const (
	// PolicyError aborts the fit with ErrDegenerateCluster.
	PolicyError Policy = iota
	// PolicyFarthestPoint moves the empty centroid onto the row that lies
	// farthest from its own centroid.
	PolicyFarthestPoint
)

func (p Policy) String() string {
	switch p {
	case PolicyError:
		return "error"
	case PolicyFarthestPoint:
		return "farthest"
	default:
		return "unknown"
	}
}

type Option func(*Clusterer)

// WithMaxIter bounds the number of assign/update rounds. Default 300.
func WithMaxIter(n int) Option {
	return func(c *Clusterer) {
		c.maxIter = n
	}
}

// WithSeed sets the seed of the generator used to pick the initial centroids.
// Default 42.
func WithSeed(seed int64) Option {
	return func(c *Clusterer) {
		c.seed = seed
	}
}

// WithTolerance sets the absolute tolerance of the centroid closeness test.
// Default 1e-4.
func WithTolerance(tol float64) Option {
	return func(c *Clusterer) {
		c.atol = tol
	}
}

// WithEmptyClusterPolicy selects how empty clusters are handled.
// The zero value is PolicyError.
func WithEmptyClusterPolicy(p Policy) Option {
	return func(c *Clusterer) {
		c.policy = p
	}
}

// ParsePolicy accepts the names returned by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "error":
		return PolicyError, nil
	case "farthest":
		return PolicyFarthestPoint, nil
	}
	return 0, fmt.Errorf("%w: unknown empty cluster policy %q", ErrInvalidConfig, s)
}
