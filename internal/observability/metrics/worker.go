package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	taskTotal    *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	taskInFlight prometheus.Gauge
	filesTotal   *prometheus.CounterVec
	queueLag     *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	taskTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docscan",
			Subsystem: "worker",
			Name:      "task_process_total",
			Help:      "Total processed tasks by terminal status.",
		},
		[]string{"service", "status"},
	)
	taskDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docscan",
			Subsystem: "worker",
			Name:      "task_process_duration_seconds",
			Help:      "Task processing duration in seconds by terminal status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "status"},
	)
	taskInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docscan",
			Subsystem: "worker",
			Name:      "task_process_in_flight",
			Help:      "Number of in-flight task runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docscan",
			Subsystem: "worker",
			Name:      "file_process_total",
			Help:      "Total processed files by outcome.",
		},
		[]string{"service", "status"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docscan",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between task creation and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(taskTotal, taskDuration, taskInFlight, filesTotal, queueLag)

	return &WorkerMetrics{
		registry:     registry,
		taskTotal:    taskTotal,
		taskDuration: taskDuration,
		taskInFlight: taskInFlight,
		filesTotal:   filesTotal,
		queueLag:     queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartTask() {
	m.taskInFlight.Inc()
}

func (m *WorkerMetrics) FinishTask(service string, duration time.Duration, err error) {
	m.taskInFlight.Dec()

	status := "completed"
	if err != nil {
		status = "failed"
	}
	m.taskTotal.WithLabelValues(service, status).Inc()
	m.taskDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordFiles(service string, completed, failed int) {
	if completed > 0 {
		m.filesTotal.WithLabelValues(service, "completed").Add(float64(completed))
	}
	if failed > 0 {
		m.filesTotal.WithLabelValues(service, "failed").Add(float64(failed))
	}
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
