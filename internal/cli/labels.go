package cli

import (
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	segmentation "github.com/yyyoichi/segmentation_zero"
	"github.com/yyyoichi/segmentation_zero/internal/raster"
	"github.com/yyyoichi/segmentation_zero/internal/store"
	"github.com/yyyoichi/segmentation_zero/internal/visual"
)

func newLabelsCmd() *cobra.Command {
	var (
		dbPath string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "labels <id>",
		Short: "Render a stored label map as PNG",
		Long: `Render the label map of the segmentation with the given id, as listed by
the scores command, with the colormap of its method.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if _, err := fmt.Sscan(args[0], &id); err != nil {
				return fmt.Errorf("invalid segmentation id %q: %w", args[0], err)
			}
			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			path, err := renderStored(db, id, out)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Info("wrote label map", "path", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "segment.db", "SQLite file written by run --db")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <image>_<method>_<k>.png)")
	return cmd
}

// renderStored writes the stored segmentation id to path and returns the
// path written.
func renderStored(db *store.DB, id int64, path string) (string, error) {
	stored, err := db.GetSegmentation(id)
	if err != nil {
		return "", err
	}
	img, err := db.GetImage(stored.ImageID)
	if err != nil {
		return "", err
	}
	labels, err := raster.NewLabels(img.Rows, img.Cols, stored.Labels)
	if err != nil {
		return "", err
	}
	seg := segmentation.Segmentation{Method: methodOf(stored.Method), K: stored.K, Labels: labels, Score: stored.Score}

	if path == "" {
		path = fmt.Sprintf("%s_%s_%d.png", outputName(img.URI), stored.Method, stored.K)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	err = visual.Display(visual.NewPNG(), f,
		[]image.Image{visual.LabelImage(labels)}, []string{seg.Title()}, []string{seg.Method.Colormap()})
	if err != nil {
		return "", fmt.Errorf("failed to render segmentation %d: %w", id, err)
	}
	return path, nil
}
