package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plumbing"

var (
	documentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents run through the pipeline by outcome (ok, open_error)",
		},
		[]string{"result"},
	)

	candidatePages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_pages_total",
			Help:      "Pages whose title block matched the sheet-number pattern",
		},
	)

	pagesRendered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_rendered_total",
			Help:      "Candidate pages successfully rasterized",
		},
	)

	renderFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_batch_failures_total",
			Help:      "Render batches that produced no image for any candidate page",
		},
	)

	classifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Page classifications by provider, label and source (model, cache)",
		},
		[]string{"provider", "classification", "source"},
	)

	classifierLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_request_duration_seconds",
			Help:      "Duration of vision model requests by provider and result",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "result"},
	)

	pipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of one document through the pipeline",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route template and status code",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route template",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registerOnce sync.Once
)

// Init registers collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(documentsProcessed, candidatePages, pagesRendered, renderFailures,
			classifications, classifierLatency, pipelineDuration, httpRequests, httpDuration)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncDocument(result string)       { documentsProcessed.WithLabelValues(result).Inc() }
func AddCandidates(n int)             { candidatePages.Add(float64(n)) }
func AddRendered(n int)               { pagesRendered.Add(float64(n)) }
func IncRenderFailure()               { renderFailures.Inc() }
func ObservePipeline(d time.Duration) { pipelineDuration.Observe(d.Seconds()) }

func IncClassification(provider, classification, source string) {
	classifications.WithLabelValues(provider, classification, source).Inc()
}

func ObserveClassifier(provider, result string, d time.Duration) {
	classifierLatency.WithLabelValues(provider, result).Observe(d.Seconds())
}

func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
