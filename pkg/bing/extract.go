package bing

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls candidate image URLs out of search results markup.
// Implementations must return matches in document order. The rest of
// the pipeline is agnostic to the payload format, so a markup change
// upstream only costs a new Extractor.
type Extractor interface {
	Extract(markup string) []string
}

// murlPattern matches the HTML-entity-escaped original-image URL
// embedded in the results payload.
var murlPattern = regexp.MustCompile(`murl&quot;:&quot;(.*?)&quot;`)

// RegexExtractor scans the raw markup for the murl pattern. This is
// the default extractor and mirrors what the results payload has looked
// like for years.
type RegexExtractor struct{}

// Extract returns every embedded original-image URL in document order.
func (RegexExtractor) Extract(markup string) []string {
	matches := murlPattern.FindAllStringSubmatch(markup, -1)
	if len(matches) == 0 {
		return nil
	}

	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1])
	}
	return urls
}

// DOMExtractor parses the results markup and reads the image metadata
// JSON carried on each result anchor. Slower than RegexExtractor but
// tolerant of whitespace and attribute-order changes in the markup.
type DOMExtractor struct{}

type imageMeta struct {
	MediaURL string `json:"murl"`
}

// Extract returns the murl of every result anchor in document order.
func (DOMExtractor) Extract(markup string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var urls []string
	doc.Find("a.iusc").Each(func(_ int, sel *goquery.Selection) {
		raw, ok := sel.Attr("m")
		if !ok {
			return
		}
		var meta imageMeta
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return
		}
		if meta.MediaURL != "" {
			urls = append(urls, meta.MediaURL)
		}
	})
	return urls
}
