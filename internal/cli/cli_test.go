package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeHalves(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := 4; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestRunAndScores(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	db := filepath.Join(out, "scores.db")
	writeHalves(t, in, "halves.png")
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("hello"), 0o644))

	stdout, stderr, err := execute(t, "run", in,
		"--k", "2", "--solver", "dense", "--format", "png", "--out", out, "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "Silhouette Score K-Means 2: 1.00\nSilhouette Score Ratio Cut 2: 1.00\n", stdout)
	assert.Contains(t, stderr, "notes.txt")
	assert.FileExists(t, filepath.Join(out, "halves_segments.png"))

	stdout, _, err = execute(t, "scores", "--db", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1\t1\thalves.png\tSilhouette Score K-Means 2: 1.00", lines[0])
	assert.Equal(t, "2\t1\thalves.png\tSilhouette Score Ratio Cut 2: 1.00", lines[1])

	stdout, _, err = execute(t, "scores", "--db", db, "--stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 segmentations\n")
	assert.Contains(t, stdout, "K-Means 2: n=1 avg=1.00")

	labelsPath := filepath.Join(out, "cut.png")
	_, stderr, err = execute(t, "labels", "2", "--db", db, "--out", labelsPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "cut.png")
	f, err := os.Open(labelsPath)
	require.NoError(t, err)
	defer f.Close()
	rendered, err := png.Decode(f)
	require.NoError(t, err)
	assert.Positive(t, rendered.Bounds().Dx())

	_, _, err = execute(t, "labels", "99", "--db", db, "--out", labelsPath)
	assert.Error(t, err)
	_, _, err = execute(t, "labels", "two", "--db", db)
	assert.Error(t, err)
}

func TestRun_HTML(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeHalves(t, in, "a.png")

	cfg := filepath.Join(in, "segment.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("n_clusters = [2]\nsolver = \"dense\"\nformat = \"html\"\n"), 0o644))

	_, _, err := execute(t, "run", in, "--config", cfg, "--out", out)
	require.NoError(t, err)
	html, err := os.ReadFile(filepath.Join(out, "a_segments.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "K-Means 2 Clusters")
}

func TestRun_MissingDir(t *testing.T) {
	stdout, stderr, err := execute(t, "run", filepath.Join(t.TempDir(), "missing"), "--format", "none")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "does not exist")
}

func TestRun_InvalidFlags(t *testing.T) {
	_, _, err := execute(t, "run", t.TempDir(), "--format", "gif")
	assert.Error(t, err)

	_, _, err = execute(t, "run", t.TempDir(), "--k", "0")
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "photo", outputName("img/photo.jpg"))
	assert.Equal(t, "a_b", outputName("https://example.com/x/a b.png"))
	assert.Equal(t, "image", outputName(""))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLoggerContext(t *testing.T) {
	assert.Equal(t, log.Default(), loggerFromContext(context.Background()))

	logger := newLogger(&bytes.Buffer{}, log.DebugLevel)
	assert.Same(t, logger, loggerFromContext(withLogger(context.Background(), logger)))
}
