package downloader

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/what-in-the-nim/bing-image-downloader/pkg/logger"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/ratelimit"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/sniff"
	"github.com/what-in-the-nim/bing-image-downloader/pkg/storage"
)

// ImageFetcher downloads image bytes from a URL
type ImageFetcher interface {
	DownloadImage(url string) ([]byte, error)
}

// ImageStore persists downloaded image bytes under a filename
type ImageStore interface {
	SaveImage(name string, data []byte) (string, error)
}

// Result represents the outcome of one download attempt
type Result struct {
	URL      string
	Path     string // saved file path, set on success
	Err      error  // failure reason, set on failure
	Duration time.Duration
}

// Success reports whether the attempt produced a saved file.
func (r Result) Success() bool {
	return r.Err == nil
}

// Batch converts pages of candidate URLs into saved files. It owns the
// cross-page deduplication set and the shared attempt counter that
// doubles as the quota gate and the filename sequence.
//
// The counter moves through an optimistic increment before the network
// call and an atomic rollback on any failure path, so the value it
// settles on always equals the number of files written.
type Batch struct {
	client  ImageFetcher
	store   ImageStore
	limiter ratelimit.Limiter
	logger  logger.Logger

	limit int64
	// maxConcurrent caps the per-page burst; 0 launches every
	// eligible candidate at once.
	maxConcurrent int

	attempts atomic.Int64
	// seen is only mutated between concurrency bursts, by
	// SelectEligible, so it needs no lock.
	seen map[string]struct{}
}

// NewBatch creates a download batch processor. limit is the target
// number of successfully saved images across all pages.
func NewBatch(client ImageFetcher, store ImageStore, limiter ratelimit.Limiter, log logger.Logger, limit int, maxConcurrent int) *Batch {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}

	return &Batch{
		client:        client,
		store:         store,
		limiter:       limiter,
		logger:        log,
		limit:         int64(limit),
		maxConcurrent: maxConcurrent,
		seen:          make(map[string]struct{}),
	}
}

// Count returns the number of successfully downloaded images so far.
func (b *Batch) Count() int64 {
	return b.attempts.Load()
}

// Remaining returns how many downloads are still wanted.
func (b *Batch) Remaining() int64 {
	r := b.limit - b.attempts.Load()
	if r < 0 {
		return 0
	}
	return r
}

// SelectEligible filters a page of candidates down to the URLs worth
// attempting: never seen before, and only as many as the remaining
// quota admits. Every candidate, eligible or not, enters the seen set,
// so a URL reappearing on a later page is never attempted twice.
func (b *Batch) SelectEligible(candidates []string) []string {
	remaining := b.Remaining()

	var eligible []string
	for _, url := range candidates {
		if _, dup := b.seen[url]; dup {
			continue
		}
		if int64(len(eligible)) < remaining {
			eligible = append(eligible, url)
		}
	}

	for _, url := range candidates {
		b.seen[url] = struct{}{}
	}

	return eligible
}

// Process runs one page worth of downloads: eligibility filtering,
// a concurrent fan-out over the survivors and a barrier join. A failed
// item never fails the batch. The returned results are in launch
// order.
func (b *Batch) Process(candidates []string) []Result {
	eligible := b.SelectEligible(candidates)
	if len(eligible) == 0 {
		return nil
	}

	results := make([]Result, len(eligible))

	var sem chan struct{}
	if b.maxConcurrent > 0 {
		sem = make(chan struct{}, b.maxConcurrent)
	}

	var wg sync.WaitGroup
	for i, url := range eligible {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			results[i] = b.downloadOne(url)
		}(i, url)
	}
	wg.Wait()

	return results
}

// downloadOne attempts a single download. The attempt counter is
// incremented before the network call and rolled back on every failure
// path; the pre-increment value names the output file.
func (b *Batch) downloadOne(url string) Result {
	start := time.Now()
	sequence := b.attempts.Add(1)
	name := storage.ImageFileName(sequence, url)

	b.limiter.Wait()

	fail := func(err error) Result {
		b.attempts.Add(-1)
		b.logger.WarnWithFields("download failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return Result{URL: url, Err: err, Duration: time.Since(start)}
	}

	data, err := b.client.DownloadImage(url)
	if err != nil {
		return fail(fmt.Errorf("download failed: %w", err))
	}

	if !sniff.IsImage(data) {
		return fail(fmt.Errorf("invalid image, not saving %s", url))
	}

	path, err := b.store.SaveImage(name, data)
	if err != nil {
		return fail(fmt.Errorf("save failed: %w", err))
	}

	b.logger.DebugWithFields("image saved", map[string]interface{}{
		"url":  url,
		"path": path,
		"size": len(data),
	})

	return Result{URL: url, Path: path, Duration: time.Since(start)}
}
