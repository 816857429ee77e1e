package imagestore

import (
	"bytes"
	"image"
	"image/gif"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), encodePNG(t, testImage(4, 3)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("not an image"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(2, 2), nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.gif"), buf.Bytes(), 0o644))

	res := Load(dir, quietLogger())

	require.Len(t, res.Images, 2)
	assert.Equal(t, "a.gif", res.Images[0].Name)
	assert.Equal(t, "b.png", res.Images[1].Name)
	assert.Equal(t, image.Rect(0, 0, 4, 3), res.Images[1].Image.Bounds())
	r, _, _, _ := res.Images[1].Image.At(1, 0).RGBA()
	assert.Equal(t, uint32(7*0x101), r)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "c.txt", res.Warnings[0].Name)
	assert.ErrorIs(t, res.Warnings[0], image.ErrFormat)
	assert.Contains(t, res.Warnings[0].Error(), "c.txt could not be read as an image")
}

func TestLoad_MissingDir(t *testing.T) {
	var buf bytes.Buffer
	res := Load(filepath.Join(t.TempDir(), "missing"), log.New(&buf))
	assert.Empty(t, res.Images)
	assert.Empty(t, res.Warnings)
	assert.Contains(t, buf.String(), "does not exist")
}

func TestParseURLs(t *testing.T) {
	urls, err := ParseURLs(strings.NewReader(`
# sample set
https://example.com/a.png

http://example.com/b.jpg
ftp://example.com/c.png
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a.png", "http://example.com/b.jpg"}, urls)
}

func TestFetcher(t *testing.T) {
	body := encodePNG(t, testImage(3, 3))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		case "/garbage.png":
			_, _ = w.Write([]byte("garbage"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir() + "/")
	res := f.Fetch([]string{srv.URL + "/ok.png", srv.URL + "/missing.png", srv.URL + "/garbage.png"}, quietLogger())

	require.Len(t, res.Images, 1)
	assert.Equal(t, srv.URL+"/ok.png", res.Images[0].Name)
	assert.Equal(t, image.Rect(0, 0, 3, 3), res.Images[0].Image.Bounds())
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, srv.URL+"/missing.png", res.Warnings[0].Name)
	assert.Equal(t, srv.URL+"/garbage.png", res.Warnings[1].Name)
}
