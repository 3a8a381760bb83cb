// Package metrics collects Prometheus metrics for the engine: edit
// operation rates, undo/redo activity, export outcomes and session
// counts.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns its own registry so multiple instances (tests, embedded
// use) never collide on registration.
type Collector struct {
	registry *prometheus.Registry

	edits          *prometheus.CounterVec
	undos          prometheus.Counter
	redos          prometheus.Counter
	exports        *prometheus.CounterVec
	exportProgress prometheus.Gauge
	activeSessions prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "framecut_edits_total",
			Help: "Total number of timeline edit operations, by operation",
		}, []string{"op"}),
		undos: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "framecut_undo_total",
			Help: "Total number of undo operations",
		}),
		redos: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "framecut_redo_total",
			Help: "Total number of redo operations",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "framecut_exports_total",
			Help: "Total number of finished exports, by outcome",
		}, []string{"outcome"}),
		exportProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "framecut_export_progress",
			Help: "Progress of the most recently updated export, 0-100",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "framecut_active_sessions",
			Help: "Current number of editing sessions",
		}),
	}

	c.registry.MustRegister(
		c.edits,
		c.undos,
		c.redos,
		c.exports,
		c.exportProgress,
		c.activeSessions,
	)

	return c
}

// RecordEdit counts one timeline edit operation.
func (c *Collector) RecordEdit(op string) {
	c.edits.WithLabelValues(op).Inc()
}

func (c *Collector) RecordUndo() {
	c.undos.Inc()
}

func (c *Collector) RecordRedo() {
	c.redos.Inc()
}

// RecordExportOutcome counts a finished export: completed, failed or
// cancelled.
func (c *Collector) RecordExportOutcome(outcome string) {
	c.exports.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetExportProgress(progress int) {
	c.exportProgress.Set(float64(progress))
}

func (c *Collector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}

// Handler exposes the collector's registry in Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
