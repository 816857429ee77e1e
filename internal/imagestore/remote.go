package imagestore

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/yyyoichi/httpcache-go"
)

// ParseURLs returns the http(s) URLs of r, one per line. Blank lines and
// lines starting with '#' are ignored.
func ParseURLs(r io.Reader) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, line)
		}
	}
	return urls, scanner.Err()
}

// Fetcher downloads images through an on-disk HTTP cache, so repeated runs
// over the same URL list do not hit the network.
type Fetcher struct {
	client httpcache.Client
}

func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client: httpcache.Client{
			Client:  http.DefaultClient,
			Cache:   httpcache.NewStorageCache(cacheDir),
			Handler: httpcache.NewDefaultHandler(),
		},
	}
}

// Fetch decodes every URL in order. Failed downloads become warnings.
func (f *Fetcher) Fetch(urls []string, logger *log.Logger) Result {
	if logger == nil {
		logger = log.Default()
	}
	var res Result
	for _, uri := range urls {
		img, err := f.fetch(uri)
		if err != nil {
			logger.Warn("skipping url", "url", uri, "err", err)
			res.Warnings = append(res.Warnings, DecodeWarning{Name: uri, Err: err})
			continue
		}
		logger.Debug("fetched image", "url", uri, "bounds", img.Bounds())
		res.Images = append(res.Images, Image{Name: uri, Image: img})
	}
	return res
}

func (f *Fetcher) fetch(uri string) (image.Image, error) {
	resp, err := f.client.Get(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
