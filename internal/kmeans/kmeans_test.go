package kmeans

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomMatrix(seed uint64, n, d int) *mat.Dense {
	rd := rand.New(rand.NewPCG(seed, seed))
	data := make([]float64, n*d)
	for i := range data {
		data[i] = rd.Float64() * 255
	}
	return mat.NewDense(n, d, data)
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name string
		k    int
		opts []Option
	}{
		{"zero k", 0, nil},
		{"negative k", -2, nil},
		{"zero iterations", 2, []Option{WithMaxIter(0)}},
		{"negative tolerance", 2, []Option{WithTolerance(-1)}},
		{"unknown policy", 2, []Option{WithEmptyClusterPolicy(Policy(7))}},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.k, tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	c, err := New(3)
	require.NoError(t, err)
	assert.Equal(t, 3, c.K())
	assert.Equal(t, 300, c.maxIter)
	assert.Equal(t, int64(42), c.seed)
	assert.Equal(t, 1e-4, c.atol)
	assert.Equal(t, PolicyError, c.policy)
}

func TestFit_KExceedsRows(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)
	_, err = c.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = c.Fit(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFit_LabelsInRange(t *testing.T) {
	testCases := []struct {
		n, d, k int
	}{
		{1, 1, 1},
		{5, 1, 5},
		{50, 1, 3},
		{64, 3, 6},
		{200, 2, 1},
	}
	for _, tt := range testCases {
		x := randomMatrix(uint64(tt.n*31+tt.k), tt.n, tt.d)
		c, err := New(tt.k, WithEmptyClusterPolicy(PolicyFarthestPoint))
		require.NoError(t, err)

		res, err := c.Fit(x)
		require.NoError(t, err)
		require.Len(t, res.Labels, tt.n)
		for i, l := range res.Labels {
			assert.GreaterOrEqual(t, l, 0, "label[%d]", i)
			assert.Less(t, l, tt.k, "label[%d]", i)
		}
		r, cc := res.Centroids.Dims()
		assert.Equal(t, tt.k, r)
		assert.Equal(t, tt.d, cc)
	}
}

func TestFit_Deterministic(t *testing.T) {
	x := randomMatrix(7, 300, 2)
	c, err := New(5, WithSeed(11), WithEmptyClusterPolicy(PolicyFarthestPoint))
	require.NoError(t, err)

	first, err := c.Fit(x)
	require.NoError(t, err)
	for range 3 {
		again, err := c.Fit(x)
		require.NoError(t, err)
		assert.Equal(t, first.Labels, again.Labels)
		assert.True(t, mat.Equal(first.Centroids, again.Centroids))
	}
}

func TestAssign_Idempotent(t *testing.T) {
	x := randomMatrix(3, 100, 2)
	centroids := mat.NewDense(3, 2, []float64{10, 10, 128, 128, 240, 20})

	first := Assign(x, centroids)
	second := Assign(x, centroids)
	assert.Equal(t, first, second)
}

func TestAssign_TieGoesToLowestIndex(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{5, 5})
	centroids := mat.NewDense(3, 1, []float64{7, 3, 5})
	assert.Equal(t, []int{2, 2}, Assign(x, centroids))

	centroids = mat.NewDense(2, 1, []float64{4, 6})
	assert.Equal(t, []int{0, 0}, Assign(x, centroids))
}

func TestFit_InertiaNonIncreasing(t *testing.T) {
	x := randomMatrix(42, 500, 2)
	c, err := New(6, WithSeed(3), WithEmptyClusterPolicy(PolicyFarthestPoint))
	require.NoError(t, err)

	res, err := c.Fit(x)
	require.NoError(t, err)
	require.Len(t, res.Inertia, res.Iterations)
	for i := 1; i < len(res.Inertia); i++ {
		assert.LessOrEqual(t, res.Inertia[i], res.Inertia[i-1]*(1+1e-12), "iteration %d", i)
	}
}

func TestFit_TwoGroups(t *testing.T) {
	x := mat.NewDense(6, 1, []float64{0, 0, 0, 10, 10, 10})
	c, err := New(2, WithSeed(42), WithEmptyClusterPolicy(PolicyFarthestPoint))
	require.NoError(t, err)

	res, err := c.Fit(x)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.LessOrEqual(t, res.Iterations, 2)

	l := res.Labels
	assert.Equal(t, l[0], l[1])
	assert.Equal(t, l[0], l[2])
	assert.Equal(t, l[3], l[4])
	assert.Equal(t, l[3], l[5])
	assert.NotEqual(t, l[0], l[3])

	centers := []float64{res.Centroids.At(0, 0), res.Centroids.At(1, 0)}
	sort.Float64s(centers)
	assert.InDelta(t, 0, centers[0], 1e-9)
	assert.InDelta(t, 10, centers[1], 1e-9)
}

func TestInitialize_DistinctRows(t *testing.T) {
	x := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 0, 0, 0, 10})
	for seed := range int64(20) {
		c, err := New(2, WithSeed(seed))
		require.NoError(t, err)
		centroids := c.initialize(x)
		got := []float64{centroids.At(0, 0), centroids.At(1, 0)}
		sort.Float64s(got)
		assert.Equal(t, []float64{0, 10}, got, "seed %d", seed)

		res, err := c.Fit(x)
		require.NoError(t, err, "seed %d", seed)
		assert.Equal(t, 1, res.Iterations, "seed %d", seed)
	}

	// fewer distinct rows than clusters
	c, err := New(3, WithSeed(1))
	require.NoError(t, err)
	centroids := c.initialize(mat.NewDense(4, 1, []float64{2, 2, 7, 2}))
	got := []float64{centroids.At(0, 0), centroids.At(1, 0), centroids.At(2, 0)}
	sort.Float64s(got)
	assert.Equal(t, []float64{2, 2, 7}, got)
}

func TestFit_EmptyCluster(t *testing.T) {
	// identical rows: every row ties onto centroid 0 and centroid 1 empties
	x := mat.NewDense(4, 1, []float64{5, 5, 5, 5})

	t.Run("error policy", func(t *testing.T) {
		c, err := New(2)
		require.NoError(t, err)
		_, err = c.Fit(x)
		assert.ErrorIs(t, err, ErrDegenerateCluster)
	})
	t.Run("farthest point policy", func(t *testing.T) {
		c, err := New(2, WithEmptyClusterPolicy(PolicyFarthestPoint))
		require.NoError(t, err)
		res, err := c.Fit(x)
		require.NoError(t, err)
		assert.True(t, res.Converged)
		assert.Equal(t, []int{0, 0, 0, 0}, res.Labels)
		assert.Equal(t, 5.0, res.Centroids.At(1, 0))
	})
}

func TestFit_MaxIterStops(t *testing.T) {
	x := randomMatrix(9, 400, 1)
	c, err := New(8, WithMaxIter(1), WithEmptyClusterPolicy(PolicyFarthestPoint))
	require.NoError(t, err)

	res, err := c.Fit(x)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
	assert.Len(t, res.Labels, 400)
}

func TestReseedFarthest(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 9, 2})
	labels := []int{0, 0, 0, 0}
	centroids := mat.NewDense(3, 1, []float64{1, 1, 1})
	next := mat.NewDense(3, 1, []float64{3, 0, 0})

	reseedFarthest(x, labels, centroids, next, []int{1, 2})
	assert.Equal(t, 9.0, next.At(1, 0))
	// second reseed may not reuse row 2
	assert.Equal(t, 0.0, next.At(2, 0))
}

func TestAllClose(t *testing.T) {
	a := mat.NewDense(1, 2, []float64{1, 100})
	assert.True(t, allClose(a, mat.NewDense(1, 2, []float64{1.00005, 100.0009}), 1e-4))
	assert.False(t, allClose(a, mat.NewDense(1, 2, []float64{1.001, 100}), 1e-4))
}

func TestAverageStore(t *testing.T) {
	s := NewAverageStore(2)
	s.Add([]float64{1, 2})
	s.Add([]float64{3, 6})
	dst := make([]float64, 2)
	s.AverageTo(dst)
	assert.Equal(t, []float64{2, 4}, dst)
	assert.Equal(t, 2, s.Count())

	s.Reset()
	assert.Equal(t, 0, s.Count())
	s.Add([]float64{5, 5})
	s.AverageTo(dst)
	assert.Equal(t, []float64{5, 5}, dst)
}
