package store

import "fmt"

// QueryScores executes a query on the scores_detailed view
func (d *DB) QueryScores(query string, args ...any) ([]*Score, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var results []*Score
	for rows.Next() {
		var r Score
		err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.StartedAt,
			&r.ImageURI,
			&r.Rows,
			&r.Cols,
			&r.Method,
			&r.K,
			&r.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// ListScores returns every stored score, or the scores of one run when runID > 0
func (d *DB) ListScores(runID int64) ([]*Score, error) {
	if runID > 0 {
		return d.QueryScores("SELECT * FROM scores_detailed WHERE run_id = ? ORDER BY id", runID)
	}
	return d.QueryScores("SELECT * FROM scores_detailed ORDER BY id")
}

// MethodStats aggregates scores per method and cluster count
type MethodStats struct {
	Method   string
	K        int
	Count    int
	AvgScore float64
	MinScore float64
	MaxScore float64
}

// GetMethodStats summarizes every stored score grouped by method and k
func (d *DB) GetMethodStats() ([]*MethodStats, error) {
	rows, err := d.db.Query(`
		SELECT method, k, COUNT(*), AVG(score), MIN(score), MAX(score)
		FROM segmentations
		GROUP BY method, k
		ORDER BY method, k`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var stats []*MethodStats
	for rows.Next() {
		var s MethodStats
		if err := rows.Scan(&s.Method, &s.K, &s.Count, &s.AvgScore, &s.MinScore, &s.MaxScore); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		stats = append(stats, &s)
	}
	return stats, rows.Err()
}
