package bing

import (
	"github.com/what-in-the-nim/bing-image-downloader/pkg/logger"
)

// Page is one unit of paginated search results.
type Page struct {
	// Index is the zero-based page counter the page was fetched with.
	Index int
	// Candidates are the extracted image URLs in document order.
	Candidates []string
}

// Pager walks the paginated search results for a single query. Pages
// are produced strictly in increasing index order; once the engine
// reports no further results the pager stays exhausted.
type Pager struct {
	client     *Client
	extractor  Extractor
	query      string
	limit      int
	allowAdult bool
	filter     string
	logger     logger.Logger

	page      int
	exhausted bool
}

// NewPager creates a pager for the given query. limit is passed to the
// endpoint as a result-count hint and bounds nothing by itself.
func NewPager(client *Client, query string, limit int, allowAdult bool, filter string, log logger.Logger) *Pager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pager{
		client:     client,
		extractor:  RegexExtractor{},
		query:      query,
		limit:      limit,
		allowAdult: allowAdult,
		filter:     filter,
		logger:     log,
	}
}

// SetExtractor replaces the default RegexExtractor.
func (p *Pager) SetExtractor(e Extractor) {
	if e != nil {
		p.extractor = e
	}
}

// PageIndex returns the index the next call to Next will fetch.
func (p *Pager) PageIndex() int {
	return p.page
}

// Exhausted reports whether the engine has signaled the end of results.
func (p *Pager) Exhausted() bool {
	return p.exhausted
}

// Next fetches the next results page and extracts its candidates.
// ok is false once the engine reports no further results (an empty
// response body); that is the intentional terminal state, distinct
// from the error return, which is fatal to the run.
func (p *Pager) Next() (Page, bool, error) {
	if p.exhausted {
		return Page{}, false, nil
	}

	requestURL := BuildSearchURL(p.query, p.page, p.limit, p.allowAdult, p.filter)

	markup, err := p.client.FetchResultsPage(requestURL)
	if err != nil {
		return Page{}, false, err
	}

	if markup == "" {
		p.exhausted = true
		p.logger.InfoWithFields("no more results", map[string]interface{}{
			"query": p.query,
			"page":  p.page,
		})
		return Page{}, false, nil
	}

	page := Page{
		Index:      p.page,
		Candidates: p.extractor.Extract(markup),
	}

	p.logger.DebugWithFields("results page extracted", map[string]interface{}{
		"query":      p.query,
		"page":       page.Index,
		"candidates": len(page.Candidates),
	})

	p.page++
	return page, true, nil
}
