package scraper

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/what-in-the-nim/bing-image-downloader/pkg/bing"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/config"
)

var jpegBody = string([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'})

// resultsMarkup builds a search results page embedding the given image URLs.
func resultsMarkup(urls ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, u := range urls {
		fmt.Fprintf(&b, `<a class="iusc" m="{&quot;murl&quot;:&quot;%s&quot;}"></a>`, u)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// searchResponder serves per-page markup keyed by the first parameter
// and records which pages were requested.
type searchResponder struct {
	mu    sync.Mutex
	pages map[string]string
	seen  []string
}

func newSearchResponder(pages map[string]string) *searchResponder {
	return &searchResponder{pages: pages}
}

func (s *searchResponder) respond(req *http.Request) (*http.Response, error) {
	first := req.URL.Query().Get("first")

	s.mu.Lock()
	s.seen = append(s.seen, first)
	markup := s.pages[first]
	s.mu.Unlock()

	return httpmock.NewStringResponse(200, markup), nil
}

func (s *searchResponder) pagesRequested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func newTestScraper(t *testing.T, transport *httpmock.MockTransport) (*Scraper, string) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.Download.Timeout = 5 * time.Second

	s, err := New(cfg)
	require.NoError(t, err)
	s.client.SetTransport(transport)

	return s, cfg.Output.BaseDirectory
}

func savedFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestDownloadStopsAtLimit(t *testing.T) {
	transport := httpmock.NewMockTransport()

	// A single page offering more candidates than the limit admits.
	var urls []string
	for i := 0; i < 7; i++ {
		u := fmt.Sprintf("https://cdn.example.com/photo%d.jpg", i)
		urls = append(urls, u)
		transport.RegisterResponder("GET", u, httpmock.NewStringResponder(200, jpegBody))
	}
	search := newSearchResponder(map[string]string{"0": resultsMarkup(urls...)})
	transport.RegisterResponder("GET", bing.BaseURL+bing.SearchEndpoint, search.respond)

	s, baseDir := newTestScraper(t, transport)

	count, err := s.Download("puppies", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	// Only 5 of the 7 candidates may be fetched.
	imageCalls := 0
	for key, n := range transport.GetCallCountInfo() {
		if strings.Contains(key, "cdn.example.com") {
			imageCalls += n
		}
	}
	assert.Equal(t, 5, imageCalls)

	files := savedFiles(t, filepath.Join(baseDir, "puppies"))
	assert.Equal(t, []string{"Image_1.jpg", "Image_2.jpg", "Image_3.jpg", "Image_4.jpg", "Image_5.jpg"}, files)
}

func TestDownloadToleratesFailuresAndExhaustion(t *testing.T) {
	transport := httpmock.NewMockTransport()

	good1 := "https://cdn.example.com/good1.jpg"
	bad := "https://cdn.example.com/bad.jpg"
	good2 := "https://cdn.example.com/good2.jpg"
	transport.RegisterResponder("GET", good1, httpmock.NewStringResponder(200, jpegBody))
	transport.RegisterResponder("GET", bad, httpmock.NewStringResponder(500, "server error"))
	transport.RegisterResponder("GET", good2, httpmock.NewStringResponder(200, jpegBody))

	// Page 1 is empty, signaling exhaustion before the limit is met.
	search := newSearchResponder(map[string]string{
		"0": resultsMarkup(good1, bad, good2),
		"1": "",
	})
	transport.RegisterResponder("GET", bing.BaseURL+bing.SearchEndpoint, search.respond)

	s, baseDir := newTestScraper(t, transport)

	count, err := s.Download("kittens", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Exhaustion on page 1 means page 2 is never requested.
	assert.Equal(t, []string{"0", "1"}, search.pagesRequested())

	files := savedFiles(t, filepath.Join(baseDir, "kittens"))
	assert.Len(t, files, 2)
}

func TestDownloadDeduplicatesAcrossPages(t *testing.T) {
	transport := httpmock.NewMockTransport()

	a := "https://cdn.example.com/a.jpg"
	b := "https://cdn.example.com/b.jpg"
	c := "https://cdn.example.com/c.jpg"
	for _, u := range []string{a, b, c} {
		transport.RegisterResponder("GET", u, httpmock.NewStringResponder(200, jpegBody))
	}

	search := newSearchResponder(map[string]string{
		"0": resultsMarkup(a, b),
		"1": resultsMarkup(b, c),
		"2": "",
	})
	transport.RegisterResponder("GET", bing.BaseURL+bing.SearchEndpoint, search.respond)

	s, baseDir := newTestScraper(t, transport)

	count, err := s.Download("ducks", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	info := transport.GetCallCountInfo()
	for _, u := range []string{a, b, c} {
		assert.Equal(t, 1, info["GET "+u], "URL %s should be fetched exactly once", u)
	}

	files := savedFiles(t, filepath.Join(baseDir, "ducks"))
	assert.Equal(t, []string{"Image_1.jpg", "Image_2.jpg", "Image_3.jpg"}, files)
}

func TestDownloadPageFetchErrorIsFatal(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", bing.BaseURL+bing.SearchEndpoint,
		httpmock.NewStringResponder(500, "internal error"))

	s, _ := newTestScraper(t, transport)

	count, err := s.Download("storms", 5)
	require.Error(t, err)
	assert.Equal(t, 0, count)
}

func TestDownloadRejectsNonPositiveLimit(t *testing.T) {
	s, _ := newTestScraper(t, httpmock.NewMockTransport())

	_, err := s.Download("anything", 0)
	assert.Error(t, err)
}

func TestDownloadSkipsNonImageContent(t *testing.T) {
	transport := httpmock.NewMockTransport()

	imageURL := "https://cdn.example.com/real.jpg"
	htmlURL := "https://cdn.example.com/error-page"
	transport.RegisterResponder("GET", imageURL, httpmock.NewStringResponder(200, jpegBody))
	transport.RegisterResponder("GET", htmlURL,
		httpmock.NewStringResponder(200, "<!DOCTYPE html><html>not found</html>"))

	search := newSearchResponder(map[string]string{
		"0": resultsMarkup(htmlURL, imageURL),
		"1": "",
	})
	transport.RegisterResponder("GET", bing.BaseURL+bing.SearchEndpoint, search.respond)

	s, baseDir := newTestScraper(t, transport)

	count, err := s.Download("flowers", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	files := savedFiles(t, filepath.Join(baseDir, "flowers"))
	assert.Len(t, files, 1)
}

func TestDownloadRecordsMetrics(t *testing.T) {
	transport := httpmock.NewMockTransport()

	good := "https://cdn.example.com/good.jpg"
	bad := "https://cdn.example.com/bad.jpg"
	transport.RegisterResponder("GET", good, httpmock.NewStringResponder(200, jpegBody))
	transport.RegisterResponder("GET", bad, httpmock.NewStringResponder(500, "server error"))

	search := newSearchResponder(map[string]string{
		"0": resultsMarkup(good, bad),
		"1": "",
	})
	transport.RegisterResponder("GET", bing.BaseURL+bing.SearchEndpoint, search.respond)

	s, _ := newTestScraper(t, transport)

	count, err := s.Download("owls", 5)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	families, err := s.Metrics().Registry.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			key := fam.GetName()
			for _, l := range m.GetLabel() {
				key += "|" + l.GetValue()
			}
			if c := m.GetCounter(); c != nil {
				values[key] = c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				values[key] = float64(h.GetSampleCount())
			}
		}
	}

	assert.Equal(t, float64(1), values["bingdl_pages_fetched_total"])
	assert.Equal(t, float64(2), values["bingdl_candidates_total"])
	assert.Equal(t, float64(1), values["bingdl_downloads_total|success"])
	assert.Equal(t, float64(1), values["bingdl_downloads_total|failure"])
	assert.Equal(t, float64(2), values["bingdl_download_duration_seconds"])
}

func TestNewScraper(t *testing.T) {
	cfg := config.DefaultConfig()

	s, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.client)
	assert.NotNil(t, s.rateLimiter)
	assert.NotNil(t, s.metrics)
	assert.Equal(t, cfg, s.config)
}

func TestOutputDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = "/tmp/dataset"

	s, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/tmp/dataset", "red car"), s.outputDir("red car"))
}
