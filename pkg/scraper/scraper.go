package scraper

import (
	"fmt"
	"path/filepath"

	"github.com/what-in-the-nim/bing-image-downloader/internal/downloader"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/bing"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/config"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/logger"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/ratelimit"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/storage"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/ui"
)

// Scraper orchestrates the Bing image download process
type Scraper struct {
	client      *bing.Client
	rateLimiter ratelimit.Limiter
	config      *config.Config
	logger      logger.Logger
	metrics     *Metrics
	verbose     bool
}

// New creates a new Scraper instance
func New(cfg *config.Config) (*Scraper, error) {
	log := logger.GetLogger()

	client := bing.NewClient(cfg.Download.Timeout, cfg.Search.UserAgent, log)

	var rateLimiter ratelimit.Limiter
	if cfg.Download.RequestsPerMinute > 0 {
		rateLimiter = ratelimit.PerMinute(cfg.Download.RequestsPerMinute)
	} else {
		rateLimiter = ratelimit.Unlimited()
	}

	return &Scraper{
		client:      client,
		rateLimiter: rateLimiter,
		config:      cfg,
		logger:      log,
		metrics:     NewMetrics(),
	}, nil
}

// SetVerbose enables per-page progress output on the terminal.
func (s *Scraper) SetVerbose(verbose bool) {
	s.verbose = verbose
}

// Metrics returns the collectors tracking this scraper's activity.
func (s *Scraper) Metrics() *Metrics {
	return s.metrics
}

// outputDir determines the output directory for a query
func (s *Scraper) outputDir(query string) string {
	return filepath.Join(s.config.Output.BaseDirectory, query)
}

// Download fetches up to limit images for the query and saves them
// under a query-named subdirectory of the configured base directory.
// It returns the number of images actually saved. A failed page fetch
// is fatal; a failed individual download is logged and skipped.
func (s *Scraper) Download(query string, limit int) (int, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("limit must be positive, got %d", limit)
	}

	store, err := storage.NewManager(s.outputDir(query), s.config.Output.ForceReplace)
	if err != nil {
		return 0, fmt.Errorf("preparing output directory: %w", err)
	}

	s.logger.InfoWithFields("starting download", map[string]interface{}{
		"query":  query,
		"limit":  limit,
		"output": store.OutputDir(),
	})

	pager := bing.NewPager(s.client, query, limit, s.config.Search.AdultContent, s.config.Search.Filter, s.logger)
	batch := downloader.NewBatch(s.client, store, s.rateLimiter, s.logger, limit, s.config.Download.ConcurrentDownloads)

	for batch.Count() < int64(limit) {
		if s.verbose {
			ui.PrintInfo("Indexing page", fmt.Sprintf("%d", pager.PageIndex()+1))
		}

		page, ok, err := pager.Next()
		if err != nil {
			return int(batch.Count()), fmt.Errorf("fetching results page %d: %w", pager.PageIndex(), err)
		}
		if !ok {
			s.logger.InfoWithFields("no more images available", map[string]interface{}{
				"query": query,
				"pages": pager.PageIndex(),
			})
			if s.verbose {
				ui.PrintWarning("No more images available")
			}
			break
		}

		s.metrics.IncPage()
		s.metrics.AddCandidates(len(page.Candidates))

		if s.verbose {
			ui.PrintInfo("Indexed", fmt.Sprintf("%d images on page %d", len(page.Candidates), page.Index+1))
		}

		results := batch.Process(page.Candidates)
		for _, r := range results {
			if r.Success() {
				s.metrics.IncDownload("success")
				if s.verbose {
					ui.PrintSuccess(fmt.Sprintf("Downloaded %s", r.Path))
				}
			} else {
				s.metrics.IncDownload("failure")
				if s.verbose {
					ui.PrintWarning("Download failed", r.Err)
				}
			}
			s.metrics.ObserveDownload(r.Duration)
		}
	}

	count := int(batch.Count())

	s.logger.InfoWithFields("download complete", map[string]interface{}{
		"query":      query,
		"downloaded": count,
		"requested":  limit,
	})
	ui.PrintSuccess(fmt.Sprintf("Downloaded %d images", count))

	return count, nil
}
