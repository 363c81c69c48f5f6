// Package scraper orchestrates the full image download flow: it walks
// the paginated search results for a query, feeds each page's
// candidate URLs to the concurrent download batch, and stops when the
// requested number of images has been saved or the engine runs out of
// results.
package scraper
