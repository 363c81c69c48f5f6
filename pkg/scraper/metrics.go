package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for one download run.
type Metrics struct {
	Registry         *prometheus.Registry
	PagesTotal       prometheus.Counter
	CandidatesTotal  prometheus.Counter
	DownloadsTotal   *prometheus.CounterVec
	DownloadDuration prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bingdl_pages_fetched_total",
			Help: "Total search result pages fetched.",
		},
	)
	candidates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bingdl_candidates_total",
			Help: "Total image URLs extracted from result pages.",
		},
	)
	downloads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bingdl_downloads_total",
			Help: "Total download attempts by outcome.",
		},
		[]string{"outcome"},
	)
	downloadDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bingdl_download_duration_seconds",
			Help:    "Latency of individual image downloads.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(pages, candidates, downloads, downloadDuration)

	return &Metrics{
		Registry:         registry,
		PagesTotal:       pages,
		CandidatesTotal:  candidates,
		DownloadsTotal:   downloads,
		DownloadDuration: downloadDuration,
	}
}

// IncPage increments the pages fetched counter.
func (m *Metrics) IncPage() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// AddCandidates adds to the extracted candidates counter.
func (m *Metrics) AddCandidates(n int) {
	if m == nil {
		return
	}
	m.CandidatesTotal.Add(float64(n))
}

// IncDownload increments the download attempts counter for an outcome label.
func (m *Metrics) IncDownload(outcome string) {
	if m == nil {
		return
	}
	m.DownloadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDownload records a single download duration.
func (m *Metrics) ObserveDownload(d time.Duration) {
	if m == nil {
		return
	}
	m.DownloadDuration.Observe(d.Seconds())
}
