// Package metrics records image scanner activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache states reported by CacheResult.
const (
	CacheUnverified = "unverified"
	CacheConfirmed  = "confirmed"
	CacheDuplicate  = "duplicate"
)

// Recorder holds the scanner metrics. A nil *Recorder records nothing.
type Recorder struct {
	imagesTotal  *prometheus.CounterVec
	symbolsTotal *prometheus.CounterVec
	finderLines  prometheus.Counter
	cacheResults *prometheus.CounterVec
	cacheEntries prometheus.Gauge
	scanDuration prometheus.Histogram
	symbolsImage prometheus.Histogram
}

// New registers the scanner metrics with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		imagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barscan_images_total",
				Help: "Total number of scanned images",
			},
			[]string{"status"}, // status: ok, invalid, cancelled
		),
		symbolsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barscan_symbols_total",
				Help: "Total number of decoded symbols",
			},
			[]string{"type"},
		),
		finderLines: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "barscan_qr_finder_lines_total",
				Help: "Total number of QR finder pattern crossings",
			},
		),
		cacheResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barscan_cache_results_total",
				Help: "Inter-frame cache lookups by resulting state",
			},
			[]string{"state"},
		),
		cacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "barscan_cache_entries",
				Help: "Number of live inter-frame cache entries",
			},
		),
		scanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "barscan_scan_duration_seconds",
				Help:    "Image scan duration in seconds",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		symbolsImage: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "barscan_symbols_per_image",
				Help:    "Number of symbols found per image",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
			},
		),
	}
}

// ImageScanned records one finished scan.
func (r *Recorder) ImageScanned(status string, d time.Duration, symbols int) {
	if r == nil {
		return
	}
	r.imagesTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		r.scanDuration.Observe(d.Seconds())
		r.symbolsImage.Observe(float64(symbols))
	}
}

// SymbolDecoded records a new symbol of the named type.
func (r *Recorder) SymbolDecoded(typ string) {
	if r == nil {
		return
	}
	r.symbolsTotal.WithLabelValues(typ).Inc()
}

// FinderLine records a QR finder pattern crossing.
func (r *Recorder) FinderLine() {
	if r == nil {
		return
	}
	r.finderLines.Inc()
}

// CacheResult records the state of a symbol after its cache lookup and
// the number of live entries.
func (r *Recorder) CacheResult(count, entries int) {
	if r == nil {
		return
	}
	state := CacheDuplicate
	switch {
	case count < 0:
		state = CacheUnverified
	case count == 0:
		state = CacheConfirmed
	}
	r.cacheResults.WithLabelValues(state).Inc()
	r.cacheEntries.Set(float64(entries))
}
