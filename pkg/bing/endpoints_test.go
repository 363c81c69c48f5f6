package bing

import (
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterCode(t *testing.T) {
	tests := []struct {
		shorthand string
		want      string
	}{
		{"line", FilterLineDrawing},
		{"linedrawing", FilterLineDrawing},
		{"photo", FilterPhoto},
		{"clipart", FilterClipart},
		{"gif", FilterAnimatedGIF},
		{"animatedgif", FilterAnimatedGIF},
		{"transparent", FilterTransparent},
		{"", ""},
		{"watercolor", ""},
		{"PHOTO", ""},
	}

	for _, tt := range tests {
		t.Run(tt.shorthand, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterCode(tt.shorthand))
		})
	}
}

func TestBuildSearchURL(t *testing.T) {
	raw := BuildSearchURL("golden retriever", 3, 25, false, "photo")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "www.bing.com", parsed.Host)
	assert.Equal(t, "/images/async", parsed.Path)

	params := parsed.Query()
	assert.Equal(t, "golden retriever", params.Get("q"))
	assert.Equal(t, "3", params.Get("first"))
	assert.Equal(t, "25", params.Get("count"))
	assert.Equal(t, "off", params.Get("adlt"))
	assert.Equal(t, FilterPhoto, params.Get("qft"))

	// The query must be plus-encoded, not %20-encoded.
	assert.Contains(t, raw, "q=golden+retriever")
}

func TestBuildSearchURLAdultToggle(t *testing.T) {
	raw := BuildSearchURL("dog", 0, 10, true, "")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "on", parsed.Query().Get("adlt"))
}

func TestBuildSearchURLNoFilter(t *testing.T) {
	raw := BuildSearchURL("dog", 0, 10, false, "")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	// qft is present but empty when no filter is requested.
	require.True(t, strings.Contains(raw, "qft="))
	assert.Equal(t, "", parsed.Query().Get("qft"))
}

func TestBuildSearchURLPageIndexIsLiteral(t *testing.T) {
	// first carries the page counter itself, not pageIndex*count.
	for page := 0; page < 4; page++ {
		raw := BuildSearchURL("cat", page, 100, false, "")
		parsed, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(page), parsed.Query().Get("first"))
	}
}
