package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	tasksCreatedTotal *prometheus.CounterVec
	comparisonsTotal  *prometheus.CounterVec
	uploadedFiles     *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docscan",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docscan",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docscan",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	tasksCreatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docscan",
			Subsystem: "tasks",
			Name:      "created_total",
			Help:      "Total accepted analysis tasks.",
		},
		[]string{"service"},
	)
	comparisonsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docscan",
			Subsystem: "compare",
			Name:      "requests_total",
			Help:      "Total completed comparisons by annotation outcome.",
		},
		[]string{"service", "annotated"},
	)
	uploadedFiles := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docscan",
			Subsystem: "tasks",
			Name:      "uploaded_files",
			Help:      "Distribution of files per accepted task.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		tasksCreatedTotal,
		comparisonsTotal,
		uploadedFiles,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		tasksCreatedTotal: tasksCreatedTotal,
		comparisonsTotal:  comparisonsTotal,
		uploadedFiles:     uploadedFiles,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/tasks/") {
		return path
	}
	if strings.HasSuffix(path, "/report.xlsx") {
		return "/v1/tasks/{task_id}/report.xlsx"
	}
	return "/v1/tasks/{task_id}"
}

func (m *HTTPServerMetrics) RecordTaskCreated(service string, fileCount int) {
	m.tasksCreatedTotal.WithLabelValues(service).Inc()
	m.uploadedFiles.WithLabelValues(service).Observe(float64(fileCount))
}

func (m *HTTPServerMetrics) RecordComparison(service string, annotated bool) {
	m.comparisonsTotal.WithLabelValues(service, strconv.FormatBool(annotated)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
