package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

// ImportMetrics records one import run on a private registry, written out as
// a node_exporter textfile when the run ends.
type ImportMetrics struct {
	registry *prometheus.Registry

	documentsTotal   *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	itemsInserted    prometheus.Counter
	eventsPublished  *prometheus.CounterVec
	lastRunSuccess   prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
}

func NewImportMetrics(service string) *ImportMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "fiscal",
			Subsystem:   "import",
			Name:        "documents_total",
			Help:        "Documents processed by kind and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"kind", "outcome"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "fiscal",
			Subsystem:   "import",
			Name:        "document_duration_seconds",
			Help:        "Time from reading a document to its terminal outcome.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: constLabels,
		},
		[]string{"kind"},
	)
	itemsInserted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "fiscal",
			Subsystem:   "import",
			Name:        "items_inserted_total",
			Help:        "Invoice item rows committed.",
			ConstLabels: constLabels,
		},
	)
	eventsPublished := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "fiscal",
			Subsystem:   "import",
			Name:        "events_published_total",
			Help:        "Document committed events by publish status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	lastRunSuccess := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "fiscal",
			Subsystem:   "import",
			Name:        "last_run_success",
			Help:        "1 when the last run completed, 0 when it aborted.",
			ConstLabels: constLabels,
		},
	)
	lastRunTimestamp := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "fiscal",
			Subsystem:   "import",
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the last run finished.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(documentsTotal, documentDuration, itemsInserted, eventsPublished, lastRunSuccess, lastRunTimestamp)

	return &ImportMetrics{
		registry:         registry,
		documentsTotal:   documentsTotal,
		documentDuration: documentDuration,
		itemsInserted:    itemsInserted,
		eventsPublished:  eventsPublished,
		lastRunSuccess:   lastRunSuccess,
		lastRunTimestamp: lastRunTimestamp,
	}
}

func (m *ImportMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *ImportMetrics) ObserveDocument(kind domain.DocumentKind, outcome domain.OutcomeStatus, seconds float64) {
	m.documentsTotal.WithLabelValues(string(kind), string(outcome)).Inc()
	if seconds >= 0 {
		m.documentDuration.WithLabelValues(string(kind)).Observe(seconds)
	}
}

func (m *ImportMetrics) ObserveItems(n int) {
	if n > 0 {
		m.itemsInserted.Add(float64(n))
	}
}

func (m *ImportMetrics) ObservePublish(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.eventsPublished.WithLabelValues(status).Inc()
}

// FinishRun stamps the run result. unixSeconds is the finish time.
func (m *ImportMetrics) FinishRun(completed bool, unixSeconds float64) {
	if completed {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
	m.lastRunTimestamp.Set(unixSeconds)
}

// WriteTextfile writes the registry atomically to path.
func (m *ImportMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
