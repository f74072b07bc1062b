// Package metrics holds the Prometheus collectors of the fair registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FairMetrics groups the counters the services update. A nil *FairMetrics
// is valid and records nothing.
type FairMetrics struct {
	registry *prometheus.Registry

	RegistrationsTotal    prometheus.Counter
	RegistrationsRejected prometheus.Counter
	VerificationsSaved    *prometheus.CounterVec
	ImportsTotal          *prometheus.CounterVec
	ImportedRowsTotal     prometheus.Counter
	ExportsTotal          *prometheus.CounterVec
	DatasetWriteDuration  *prometheus.HistogramVec
	DayViewRows           prometheus.Gauge
	SchemaFailures        prometheus.Counter
}

// New registers every collector on a private registry.
func New() *FairMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &FairMetrics{
		registry: reg,
		RegistrationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fair_registrations_total",
			Help: "Inscriptions appended to the master dataset",
		}),
		RegistrationsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "fair_registrations_rejected_total",
			Help: "Registration forms rejected for missing required fields",
		}),
		VerificationsSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fair_verifications_saved_total",
			Help: "Verification saves by outcome",
		}, []string{"outcome"}),
		ImportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fair_imports_total",
			Help: "Bulk master imports by result",
		}, []string{"result"}),
		ImportedRowsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fair_imported_rows_total",
			Help: "Rows appended to the master dataset by bulk imports",
		}),
		ExportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fair_exports_total",
			Help: "Downloads served by format",
		}, []string{"format"}),
		DatasetWriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fair_dataset_write_seconds",
			Help:    "Time spent rewriting a dataset file",
			Buckets: prometheus.DefBuckets,
		}, []string{"dataset"}),
		DayViewRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fair_day_view_rows",
			Help: "Rows in the most recently built day view",
		}),
		SchemaFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "fair_schema_failures_total",
			Help: "Day view builds halted by a missing master column",
		}),
	}
}

// Registry exposes the private registry, mainly for tests.
func (m *FairMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *FairMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *FairMetrics) RegistrationAccepted() {
	if m != nil {
		m.RegistrationsTotal.Inc()
	}
}

func (m *FairMetrics) RegistrationRejected() {
	if m != nil {
		m.RegistrationsRejected.Inc()
	}
}

// VerificationSaved counts a save as "created" or "updated".
func (m *FairMetrics) VerificationSaved(updated bool) {
	if m == nil {
		return
	}
	outcome := "created"
	if updated {
		outcome = "updated"
	}
	m.VerificationsSaved.WithLabelValues(outcome).Inc()
}

func (m *FairMetrics) ImportFinished(rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ImportsTotal.WithLabelValues("failed").Inc()
		return
	}
	m.ImportsTotal.WithLabelValues("ok").Inc()
	m.ImportedRowsTotal.Add(float64(rows))
}

func (m *FairMetrics) ExportServed(format string) {
	if m != nil {
		m.ExportsTotal.WithLabelValues(format).Inc()
	}
}

// ObserveWrite records how long a dataset rewrite took since start.
func (m *FairMetrics) ObserveWrite(dataset string, start time.Time) {
	if m != nil {
		m.DatasetWriteDuration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())
	}
}

func (m *FairMetrics) DayViewSize(rows int) {
	if m != nil {
		m.DayViewRows.Set(float64(rows))
	}
}

func (m *FairMetrics) SchemaFailure() {
	if m != nil {
		m.SchemaFailures.Inc()
	}
}
