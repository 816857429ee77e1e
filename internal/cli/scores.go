package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	segmentation "github.com/yyyoichi/segmentation_zero"
	"github.com/yyyoichi/segmentation_zero/internal/store"
)

func newScoresCmd() *cobra.Command {
	var (
		dbPath string
		runID  int64
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "scores",
		Short: "List stored silhouette scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if stats {
				return printStats(cmd.OutOrStdout(), db)
			}
			return printScores(cmd.OutOrStdout(), db, runID)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "segment.db", "SQLite file written by run --db")
	cmd.Flags().Int64Var(&runID, "run", 0, "only list this run")
	cmd.Flags().BoolVar(&stats, "stats", false, "summarize scores per method and cluster count")
	return cmd
}

func printScores(w io.Writer, db *store.DB, runID int64) error {
	scores, err := db.ListScores(runID)
	if err != nil {
		return err
	}
	for _, s := range scores {
		seg := segmentation.Segmentation{Method: methodOf(s.Method), K: s.K, Score: s.Score}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", s.ID, s.RunID, s.ImageURI, seg.ScoreLine())
	}
	return nil
}

func printStats(w io.Writer, db *store.DB) error {
	count, err := db.CountSegmentations()
	if err != nil {
		return err
	}
	stats, err := db.GetMethodStats()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d segmentations\n", count)
	for _, s := range stats {
		fmt.Fprintf(w, "%s %d: n=%d avg=%.2f min=%.2f max=%.2f\n",
			methodOf(s.Method), s.K, s.Count, s.AvgScore, s.MinScore, s.MaxScore)
	}
	return nil
}

func methodOf(key string) segmentation.Method {
	m, err := segmentation.ParseMethod(key)
	if err != nil {
		return segmentation.Method(-1)
	}
	return m
}
