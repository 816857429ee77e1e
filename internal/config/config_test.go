package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	segmentation "github.com/yyyoichi/segmentation_zero"
	"github.com/yyyoichi/segmentation_zero/internal/spectral"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "segment.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int{3, 6}, cfg.NClusters)
	assert.Equal(t, 300, cfg.MaxIter)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 10.0, cfg.Temperature)
	assert.Equal(t, 1e-4, cfg.ConvergenceTolerance)
	assert.Equal(t, "farthest", cfg.EmptyClusterPolicy)
	assert.Equal(t, "png", cfg.Format)

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
n_clusters = [2, 4, 8]
seed = 7
temperature = 12.5
methods = ["ratio_cut"]
solver = "dense"
downscale = 1
format = "html"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4, 8}, cfg.NClusters)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 12.5, cfg.Temperature)
	assert.Equal(t, []string{"ratio_cut"}, cfg.Methods)
	assert.Equal(t, 1, cfg.Downscale)
	assert.Equal(t, "html", cfg.Format)
	// untouched keys keep their defaults
	assert.Equal(t, 300, cfg.MaxIter)
	assert.Equal(t, "farthest", cfg.EmptyClusterPolicy)

	assert.Equal(t, spectral.Dense{}, cfg.EigenSolver())
	opts, err := cfg.Options()
	require.NoError(t, err)
	_, err = segmentation.New(opts...)
	require.NoError(t, err)
	assert.Contains(t, cfg.Summary(), "n_clusters=2,4,8")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty clusters", `n_clusters = []`},
		{"zero cluster", `n_clusters = [0]`},
		{"max iter", `max_iter = 0`},
		{"temperature", `temperature = -1.0`},
		{"tolerance", `convergence_tolerance = -0.5`},
		{"policy", `empty_cluster_policy = "ignore"`},
		{"method", `methods = ["dbscan"]`},
		{"solver", `solver = "arpack"`},
		{"lanczos", `lanczos_steps = 1`},
		{"downscale", `downscale = -2`},
		{"format", `format = "svg"`},
		{"syntax", `n_clusters = [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEigenSolver_Lanczos(t *testing.T) {
	cfg := Default()
	cfg.LanczosSteps = 50
	assert.Equal(t, spectral.Lanczos{
		MaxSteps: 50,
		Restarts: spectral.DefaultLanczosRestarts,
		Tol:      spectral.DefaultLanczosTol,
		Seed:     42,
	}, cfg.EigenSolver())
}
