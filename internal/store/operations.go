package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/yyyoichi/segmentation_zero/internal/bitconv"
)

// InsertRun records a new run started now
func (d *DB) InsertRun(params string) (int64, error) {
	result, err := d.db.Exec(
		"INSERT INTO runs (started_at, params) VALUES (?, ?)",
		time.Now().UTC().Format(time.RFC3339), params,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return result.LastInsertId()
}

// InsertImage inserts or gets an existing image
func (d *DB) InsertImage(uri string, rows, cols int) (int64, error) {
	// Try to get existing
	var id int64
	err := d.db.QueryRow(
		"SELECT id FROM images WHERE uri = ? AND height = ? AND width = ?",
		uri, rows, cols,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to query image: %w", err)
	}

	// Insert new
	result, err := d.db.Exec(
		"INSERT INTO images (uri, height, width) VALUES (?, ?, ?)",
		uri, rows, cols,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}
	return result.LastInsertId()
}

// InsertSegmentation packs the labels and stores the scored segmentation
func (d *DB) InsertSegmentation(s *Segmentation) (int64, error) {
	packed, err := bitconv.PackLabels(s.Labels)
	if err != nil {
		return 0, fmt.Errorf("failed to pack labels: %w", err)
	}
	result, err := d.db.Exec(`
		INSERT INTO segmentations (run_id, image_id, method, k, score, label_width, labels)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.RunID, s.ImageID, s.Method, s.K, s.Score, packed.Width, packed.Bytes(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert segmentation: %w", err)
	}
	return result.LastInsertId()
}

// GetImage retrieves an image by ID
func (d *DB) GetImage(id int64) (*Image, error) {
	var img Image
	err := d.db.QueryRow("SELECT id, uri, height, width FROM images WHERE id = ?", id).
		Scan(&img.ID, &img.URI, &img.Rows, &img.Cols)
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

// GetSegmentation retrieves a segmentation and unpacks its labels
func (d *DB) GetSegmentation(id int64) (*Segmentation, error) {
	var (
		s     Segmentation
		width int
		count int
		blob  []byte
	)
	err := d.db.QueryRow(`
		SELECT s.id, s.run_id, s.image_id, s.method, s.k, s.score, s.label_width, i.height * i.width, s.labels
		FROM segmentations s JOIN images i ON s.image_id = i.id
		WHERE s.id = ?`, id,
	).Scan(&s.ID, &s.RunID, &s.ImageID, &s.Method, &s.K, &s.Score, &width, &count, &blob)
	if err != nil {
		return nil, fmt.Errorf("failed to get segmentation: %w", err)
	}

	packed, err := bitconv.ParsePacked(width, count, blob)
	if err != nil {
		return nil, err
	}
	if s.Labels, err = bitconv.UnpackLabels(packed); err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSegmentations returns the total number of segmentations
func (d *DB) CountSegmentations() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM segmentations").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count segmentations: %w", err)
	}
	return count, nil
}
