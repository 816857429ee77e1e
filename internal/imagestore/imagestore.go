// Package imagestore loads the images to segment from a local directory or
// from a list of URLs.
package imagestore

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a decoded source image.
type Image struct {
	Name  string
	Image image.Image
}

// DecodeWarning reports an entry that could not be read as an image.
// It never aborts a load.
type DecodeWarning struct {
	Name string
	Err  error
}

func (w DecodeWarning) Error() string {
	return fmt.Sprintf("%s could not be read as an image: %v", w.Name, w.Err)
}

func (w DecodeWarning) Unwrap() error { return w.Err }

type Result struct {
	Images   []Image
	Warnings []DecodeWarning
}

// Load decodes every regular file of dir in lexical order. A missing
// directory yields an empty result.
func Load(dir string, logger *log.Logger) Result {
	if logger == nil {
		logger = log.Default()
	}
	var res Result
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("image directory does not exist", "dir", dir)
		} else {
			logger.Error("failed to read image directory", "dir", dir, "err", err)
		}
		return res
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		img, err := decodeFile(path)
		if err != nil {
			w := DecodeWarning{Name: e.Name(), Err: err}
			logger.Warn("skipping file", "name", e.Name(), "err", err)
			res.Warnings = append(res.Warnings, w)
			continue
		}
		logger.Debug("loaded image", "name", e.Name(), "bounds", img.Bounds())
		res.Images = append(res.Images, Image{Name: e.Name(), Image: img})
	}
	return res
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
