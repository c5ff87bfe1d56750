package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	registry       *prom.Registry
	renderDuration prom.Histogram
	scanDuration   prom.Histogram
	processed      *prom.CounterVec
	includeMisses  prom.Counter
	cacheResults   *prom.CounterVec
	documentCount  prom.Gauge
}

// NewPrometheusRecorder constructs and registers the pipeline metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.renderDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdsite",
			Name:      "render_duration_seconds",
			Help:      "Duration of single-document parse and render passes",
			Buckets:   prom.DefBuckets,
		})
		pr.scanDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdsite",
			Name:      "scan_duration_seconds",
			Help:      "Duration of full content directory scans",
			Buckets:   prom.DefBuckets,
		})
		pr.processed = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "documents_processed_total",
			Help:      "Documents processed by outcome",
		}, []string{"result"})
		pr.includeMisses = prom.NewCounter(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "include_misses_total",
			Help:      "Include directives that could not be resolved",
		})
		pr.cacheResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "render_cache_results_total",
			Help:      "Render cache lookups by hit/miss",
		}, []string{"result"})
		pr.documentCount = prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdsite",
			Name:      "documents_loaded",
			Help:      "Documents currently held by the store",
		})
		reg.MustRegister(pr.renderDuration, pr.scanDuration, pr.processed,
			pr.includeMisses, pr.cacheResults, pr.documentCount)
	})
	return pr
}

// Handler returns an HTTP handler exposing the recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveScanDuration(d time.Duration) {
	if p == nil || p.scanDuration == nil {
		return
	}
	p.scanDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocumentProcessed(result ResultLabel) {
	if p == nil || p.processed == nil {
		return
	}
	p.processed.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncIncludeMiss() {
	if p == nil || p.includeMisses == nil {
		return
	}
	p.includeMisses.Inc()
}

func (p *PrometheusRecorder) IncCacheResult(hit bool) {
	if p == nil || p.cacheResults == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.cacheResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetDocumentCount(n int) {
	if p == nil || p.documentCount == nil {
		return
	}
	p.documentCount.Set(float64(n))
}
