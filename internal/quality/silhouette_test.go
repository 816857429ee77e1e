package quality

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func column(values ...float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

func TestSilhouette_TwoGroups(t *testing.T) {
	score, err := Silhouette(column(0, 1, 10, 11), []int{0, 0, 1, 1})
	require.NoError(t, err)
	want := (9.5/10.5 + 8.5/9.5) / 2
	assert.InDelta(t, want, score, 1e-12)

	// label values are arbitrary
	score, err = Silhouette(column(0, 1, 10, 11), []int{7, 7, -3, -3})
	require.NoError(t, err)
	assert.InDelta(t, want, score, 1e-12)
}

func TestSilhouette_Singleton(t *testing.T) {
	// the singleton contributes 0; points 0 and 1: a=1, b=5 and 4
	score, err := Silhouette(column(0, 1, 5), []int{0, 0, 1})
	require.NoError(t, err)
	want := (4.0/5 + 3.0/4 + 0) / 3
	assert.InDelta(t, want, score, 1e-12)
}

func TestSilhouette_Identical(t *testing.T) {
	score, err := Silhouette(column(3, 3, 3, 3), []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestSilhouette_TwoDimensions(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		0, 0,
		0, 3,
		4, 0,
		4, 3,
	})
	score, err := Silhouette(x, []int{0, 0, 1, 1})
	require.NoError(t, err)
	// every point: a=3, b=(4+5)/2
	assert.InDelta(t, (4.5-3)/4.5, score, 1e-12)
}

func TestSilhouette_OneDimMatchesDense(t *testing.T) {
	rd := rand.New(rand.NewPCG(1, 2))
	const n, k = 200, 4
	values := make([]float64, n)
	labels := make([]int, n)
	for i := range n {
		values[i] = rd.Float64() * 255
		labels[i] = rd.IntN(k)
	}
	labels[0] = 0
	labels[1] = 1

	fast := silhouette1D(values, labels, k)
	slow := silhouetteDense(column(values...), labels, k)
	assert.InDelta(t, slow, fast, 1e-9)
	assert.GreaterOrEqual(t, fast, -1.0)
	assert.LessOrEqual(t, fast, 1.0)
}

func TestSilhouette_Errors(t *testing.T) {
	_, err := Silhouette(column(1, 2, 3), []int{0, 0, 0})
	assert.ErrorIs(t, err, ErrSingleCluster)

	_, err = Silhouette(column(1, 2, 3), []int{0, 1, 2})
	assert.ErrorIs(t, err, ErrTooManyClusters)

	_, err = Silhouette(column(1, 2, 3), []int{0, 1})
	assert.ErrorIs(t, err, ErrLabelMismatch)
}
