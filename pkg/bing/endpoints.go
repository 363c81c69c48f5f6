package bing

import (
	"fmt"
	"net/url"
)

const (
	// BaseURL is the base URL for Bing
	BaseURL = "https://www.bing.com"

	// SearchEndpoint is the asynchronous image search results endpoint
	SearchEndpoint = "/images/async"
)

// Filter codes accepted by the search endpoint's qft parameter
const (
	FilterLineDrawing = "+filterui:photo-linedrawing"
	FilterPhoto       = "+filterui:photo-photo"
	FilterClipart     = "+filterui:photo-clipart"
	FilterAnimatedGIF = "+filterui:photo-animatedgif"
	FilterTransparent = "+filterui:photo-transparent"
)

// FilterCode maps a filter shorthand to the qft code the endpoint
// understands. Unrecognized or empty shorthand means no filter.
func FilterCode(shorthand string) string {
	switch shorthand {
	case "line", "linedrawing":
		return FilterLineDrawing
	case "photo":
		return FilterPhoto
	case "clipart":
		return FilterClipart
	case "gif", "animatedgif":
		return FilterAnimatedGIF
	case "transparent":
		return FilterTransparent
	default:
		return ""
	}
}

// BuildSearchURL constructs the search results URL for one page.
//
// The first parameter carries the raw page counter, not a result
// offset. The upstream endpoint treats each increment as one scroll
// step, which means consecutive pages may overlap; the duplicate
// filtering downstream absorbs that.
func BuildSearchURL(query string, pageIndex, count int, allowAdult bool, filter string) string {
	adult := "off"
	if allowAdult {
		adult = "on"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("first", fmt.Sprintf("%d", pageIndex))
	params.Set("count", fmt.Sprintf("%d", count))
	params.Set("adlt", adult)
	params.Set("qft", FilterCode(filter))

	return fmt.Sprintf("%s%s?%s", BaseURL, SearchEndpoint, params.Encode())
}
