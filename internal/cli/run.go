package cli

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	segmentation "github.com/yyyoichi/segmentation_zero"
	"github.com/yyyoichi/segmentation_zero/internal/config"
	"github.com/yyyoichi/segmentation_zero/internal/imagestore"
	"github.com/yyyoichi/segmentation_zero/internal/store"
	"github.com/yyyoichi/segmentation_zero/internal/visual"
)

type runFlags struct {
	config    string
	k         []int
	out       string
	format    string
	db        string
	solver    string
	downscale int
	urls      string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Segment every image of a directory",
		Long: `Segment every image of a directory (or of a URL list with --urls) with
every configured method and cluster count, print one silhouette score line per
labeling and render the label maps next to the original image.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags, args)
			if err != nil {
				return err
			}
			return runSegment(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "TOML configuration file")
	cmd.Flags().IntSliceVarP(&flags.k, "k", "k", nil, "cluster counts (comma-separated)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output directory for renderings")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "rendering format: png, html, none")
	cmd.Flags().StringVar(&flags.db, "db", "", "SQLite file that stores scores and label maps")
	cmd.Flags().StringVar(&flags.solver, "solver", "", "eigensolver: lanczos, dense")
	cmd.Flags().IntVar(&flags.downscale, "downscale", 0, "halve images this many times before clustering")
	cmd.Flags().StringVar(&flags.urls, "urls", "", "file listing image URLs to fetch instead of a directory")

	return cmd
}

// resolveConfig layers the configuration file and explicit flags over the
// defaults.
func resolveConfig(cmd *cobra.Command, flags runFlags, args []string) (config.Config, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return cfg, err
	}
	if len(args) > 0 {
		cfg.InputDir = args[0]
	}
	changed := cmd.Flags().Changed
	if changed("k") {
		cfg.NClusters = flags.k
	}
	if changed("out") {
		cfg.OutputDir = flags.out
	}
	if changed("format") {
		cfg.Format = flags.format
	}
	if changed("db") {
		cfg.DB = flags.db
	}
	if changed("solver") {
		cfg.Solver = flags.solver
	}
	if changed("downscale") {
		cfg.Downscale = flags.downscale
	}
	if changed("urls") {
		cfg.URLs = flags.urls
	}
	return cfg, cfg.Validate()
}

func runSegment(ctx context.Context, cfg config.Config, out io.Writer) error {
	logger := loggerFromContext(ctx)

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	seg, err := segmentation.New(append(opts, segmentation.WithLogger(logger))...)
	if err != nil {
		return err
	}

	loaded, err := loadImages(cfg, logger)
	if err != nil {
		return err
	}
	if len(loaded.Images) == 0 {
		logger.Info("no images to segment")
		return nil
	}

	originals := make(map[string]image.Image, len(loaded.Images))
	images := make([]segmentation.Image, len(loaded.Images))
	for i, img := range loaded.Images {
		originals[img.Name] = img.Image
		images[i] = segmentation.Image{Name: img.Name, Grid: segmentation.GridFromImage(img.Image)}
	}

	prog := newProgress(logger)
	report, err := seg.Run(ctx, images)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Segmented %d of %d images", len(report.Results), len(images)))

	for _, res := range report.Results {
		for _, s := range res.Segmentations {
			fmt.Fprintln(out, s.ScoreLine())
		}
		if err := render(cfg, res, originals[res.Name], logger); err != nil {
			return err
		}
	}

	if cfg.DB != "" {
		if err := saveReport(cfg, report, logger); err != nil {
			return err
		}
	}
	return nil
}

func loadImages(cfg config.Config, logger *log.Logger) (imagestore.Result, error) {
	if cfg.URLs == "" {
		return imagestore.Load(cfg.InputDir, logger), nil
	}
	f, err := os.Open(cfg.URLs)
	if err != nil {
		return imagestore.Result{}, fmt.Errorf("failed to open url list: %w", err)
	}
	defer f.Close()
	urls, err := imagestore.ParseURLs(f)
	if err != nil {
		return imagestore.Result{}, fmt.Errorf("failed to read url list: %w", err)
	}
	return imagestore.NewFetcher(cfg.CacheDir).Fetch(urls, logger), nil
}

// render writes the original image and every label map of res side by side.
func render(cfg config.Config, res segmentation.Result, original image.Image, logger *log.Logger) error {
	var r visual.Renderer
	switch cfg.Format {
	case "png":
		r = visual.NewPNG()
	case "html":
		h := visual.NewHTML()
		h.PageTitle = res.Name
		r = h
	default:
		return nil
	}

	images := []image.Image{original}
	titles := []string{"Original"}
	colormaps := []string{"viridis"}
	for _, s := range res.Segmentations {
		images = append(images, visual.LabelImage(s.Labels))
		titles = append(titles, s.Title())
		colormaps = append(colormaps, s.Method.Colormap())
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(cfg.OutputDir, outputName(res.Name)+"_segments."+cfg.Format)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := visual.Display(r, f, images, titles, colormaps); err != nil {
		return fmt.Errorf("failed to render %s: %w", res.Name, err)
	}
	logger.Debug("wrote rendering", "path", path)
	return nil
}

// outputName turns a file name or URL into a safe base name.
func outputName(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if base == "" {
		return "image"
	}
	return base
}

func saveReport(cfg config.Config, report *segmentation.Report, logger *log.Logger) error {
	db, err := store.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.InsertRun(cfg.Summary())
	if err != nil {
		return err
	}
	for _, res := range report.Results {
		imageID, err := db.InsertImage(res.Name, res.Grid.Rows, res.Grid.Cols)
		if err != nil {
			return err
		}
		for _, s := range res.Segmentations {
			_, err := db.InsertSegmentation(&store.Segmentation{
				RunID:   runID,
				ImageID: imageID,
				Method:  s.Method.Key(),
				K:       s.K,
				Score:   s.Score,
				Labels:  s.Labels.Data,
			})
			if err != nil {
				return err
			}
		}
	}
	logger.Info("stored scores", "db", cfg.DB, "run", runID)
	return nil
}
