package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives measurements from the HTTP layer and the channel
// source. Call sites stay unconditional; when metrics are disabled they get
// a Nop.
type Recorder interface {
	RecordHTTPRequest(endpoint string, status int, elapsed time.Duration)
	RecordSourceFetch(elapsed time.Duration, pages int, err error)
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordHTTPRequest(string, int, time.Duration) {}
func (Nop) RecordSourceFetch(time.Duration, int, error)  {}

// GroupCounts reports the current saved-group totals for gauges.
type GroupCounts func() (users, groups int)

// Prom records into its own registry, so tests can build as many recorders
// as they like without duplicate registration panics.
type Prom struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	fetchTotal    prometheus.Counter
	fetchFailures prometheus.Counter
	fetchDuration prometheus.Histogram
	fetchPages    prometheus.Counter
}

func NewProm(counts GroupCounts) *Prom {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	p := &Prom{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "changrep_http_requests_total",
			Help: "HTTP requests served, by route pattern and status.",
		}, []string{"endpoint", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "changrep_http_request_duration_seconds",
			Help:    "HTTP request latency, by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		fetchTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "changrep_source_fetch_total",
			Help: "Channel source fetches attempted.",
		}),
		fetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "changrep_source_fetch_failures_total",
			Help: "Channel source fetches that ended in an error.",
		}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "changrep_source_fetch_duration_seconds",
			Help:    "Wall time of a full cursor walk over the channel source.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		fetchPages: factory.NewCounter(prometheus.CounterOpts{
			Name: "changrep_source_pages_total",
			Help: "Pages requested from the channel source.",
		}),
	}

	if counts != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "changrep_saved_groups_total",
			Help: "Saved groups currently held in memory.",
		}, func() float64 {
			_, groups := counts()
			return float64(groups)
		})
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "changrep_group_users_total",
			Help: "Users with at least one saved group.",
		}, func() float64 {
			users, _ := counts()
			return float64(users)
		})
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prom) RecordHTTPRequest(endpoint string, status int, elapsed time.Duration) {
	p.httpRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (p *Prom) RecordSourceFetch(elapsed time.Duration, pages int, err error) {
	p.fetchTotal.Inc()
	p.fetchPages.Add(float64(pages))
	p.fetchDuration.Observe(elapsed.Seconds())
	if err != nil {
		p.fetchFailures.Inc()
	}
}

// Handler serves the scrape endpoint for this recorder's registry.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
