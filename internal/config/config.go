// Package config loads segmentation settings from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	segmentation "github.com/yyyoichi/segmentation_zero"
	"github.com/yyyoichi/segmentation_zero/internal/kmeans"
	"github.com/yyyoichi/segmentation_zero/internal/spectral"
)

var (
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Formats accepted by Config.Format.
var Formats = []string{"png", "html", "none"}

type Config struct {
	NClusters            []int    `toml:"n_clusters"`
	MaxIter              int      `toml:"max_iter"`
	Seed                 int64    `toml:"seed"`
	Temperature          float64  `toml:"temperature"`
	ConvergenceTolerance float64  `toml:"convergence_tolerance"`
	EmptyClusterPolicy   string   `toml:"empty_cluster_policy"`
	Methods              []string `toml:"methods"`

	Solver          string  `toml:"solver"`
	LanczosSteps    int     `toml:"lanczos_steps"`
	LanczosRestarts int     `toml:"lanczos_restarts"`
	LanczosTol      float64 `toml:"lanczos_tol"`
	Downscale       int     `toml:"downscale"`

	InputDir  string `toml:"input_dir"`
	URLs      string `toml:"urls"`
	CacheDir  string `toml:"cache_dir"`
	OutputDir string `toml:"output_dir"`
	Format    string `toml:"format"`
	DB        string `toml:"db"`
}

func Default() Config {
	return Config{
		NClusters:            []int{3, 6},
		MaxIter:              300,
		Seed:                 42,
		Temperature:          10.0,
		ConvergenceTolerance: 1e-4,
		EmptyClusterPolicy:   "farthest",
		Methods:              []string{"kmeans", "ratio_cut"},
		Solver:               "lanczos",
		LanczosSteps:         spectral.DefaultLanczosSteps,
		LanczosRestarts:      spectral.DefaultLanczosRestarts,
		LanczosTol:           spectral.DefaultLanczosTol,
		InputDir:             "img",
		CacheDir:             filepath.Join(os.TempDir(), "segment_http_cache") + string(filepath.Separator),
		OutputDir:            "out",
		Format:               "png",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if len(c.NClusters) == 0 {
		errs = append(errs, errors.New("n_clusters is empty"))
	}
	for _, k := range c.NClusters {
		if k < 1 {
			errs = append(errs, fmt.Errorf("n_clusters contains %d", k))
		}
	}
	if c.MaxIter < 1 {
		errs = append(errs, fmt.Errorf("max_iter %d", c.MaxIter))
	}
	if !(c.Temperature > 0) {
		errs = append(errs, fmt.Errorf("temperature %v", c.Temperature))
	}
	if !(c.ConvergenceTolerance >= 0) {
		errs = append(errs, fmt.Errorf("convergence_tolerance %v", c.ConvergenceTolerance))
	}
	if _, err := kmeans.ParsePolicy(c.EmptyClusterPolicy); err != nil {
		errs = append(errs, err)
	}
	if len(c.Methods) == 0 {
		errs = append(errs, errors.New("methods is empty"))
	}
	for _, m := range c.Methods {
		if _, err := segmentation.ParseMethod(m); err != nil {
			errs = append(errs, err)
		}
	}
	switch c.Solver {
	case "lanczos":
		if c.LanczosSteps < 2 || c.LanczosRestarts < 0 || !(c.LanczosTol > 0) {
			errs = append(errs, fmt.Errorf("lanczos_steps %d, lanczos_restarts %d, lanczos_tol %v",
				c.LanczosSteps, c.LanczosRestarts, c.LanczosTol))
		}
	case "dense":
	default:
		errs = append(errs, fmt.Errorf("solver %q", c.Solver))
	}
	if c.Downscale < 0 {
		errs = append(errs, fmt.Errorf("downscale %d", c.Downscale))
	}
	if !slices.Contains(Formats, c.Format) {
		errs = append(errs, fmt.Errorf("format %q", c.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// EigenSolver builds the configured solver.
func (c Config) EigenSolver() spectral.EigenSolver {
	if c.Solver == "dense" {
		return spectral.Dense{}
	}
	return spectral.Lanczos{
		MaxSteps: c.LanczosSteps,
		Restarts: c.LanczosRestarts,
		Tol:      c.LanczosTol,
		Seed:     uint64(c.Seed),
	}
}

// Options translates the configuration into segmenter options. It expects a
// validated configuration.
func (c Config) Options() ([]segmentation.Option, error) {
	policy, err := kmeans.ParsePolicy(c.EmptyClusterPolicy)
	if err != nil {
		return nil, err
	}
	methods := make([]segmentation.Method, len(c.Methods))
	for i, name := range c.Methods {
		if methods[i], err = segmentation.ParseMethod(name); err != nil {
			return nil, err
		}
	}
	return []segmentation.Option{
		segmentation.WithClusterCounts(c.NClusters...),
		segmentation.WithMaxIter(c.MaxIter),
		segmentation.WithSeed(c.Seed),
		segmentation.WithTemperature(c.Temperature),
		segmentation.WithTolerance(c.ConvergenceTolerance),
		segmentation.WithEmptyClusterPolicy(policy),
		segmentation.WithMethods(methods...),
		segmentation.WithEigenSolver(c.EigenSolver()),
		segmentation.WithDownscale(c.Downscale),
	}, nil
}

// Summary is a one line description stored with every run.
func (c Config) Summary() string {
	ks := make([]string, len(c.NClusters))
	for i, k := range c.NClusters {
		ks[i] = fmt.Sprint(k)
	}
	return fmt.Sprintf("n_clusters=%s max_iter=%d seed=%d temperature=%g tol=%g policy=%s methods=%s solver=%s downscale=%d",
		strings.Join(ks, ","), c.MaxIter, c.Seed, c.Temperature, c.ConvergenceTolerance,
		c.EmptyClusterPolicy, strings.Join(c.Methods, ","), c.Solver, c.Downscale)
}
