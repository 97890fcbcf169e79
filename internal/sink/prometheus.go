package sink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tinytelemetry/httpmon/internal/model"
	"github.com/tinytelemetry/httpmon/internal/monitor"
)

// Prometheus exports events and pipeline status as metrics on its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	alertActive   prometheus.Gauge
	alertLoad     prometheus.Gauge
	alertsTotal   *prometheus.CounterVec
	snapshots     prometheus.Counter
	snapRequests  prometheus.Gauge
	snapBytes     *prometheus.GaugeVec
	snapSections  *prometheus.GaugeVec
	snapStatus    *prometheus.GaugeVec
	logicalTime   prometheus.Gauge
	windowLoad    prometheus.Gauge
	recordsByKind *prometheus.GaugeVec
	buckets       prometheus.Gauge
}

// NewPrometheus registers the httpmon metrics on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		alertActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "httpmon_alert_active",
			Help: "1 while the high-traffic alert is raised",
		}),
		alertLoad: f.NewGauge(prometheus.GaugeOpts{
			Name: "httpmon_alert_transition_load",
			Help: "Windowed load at the last alert transition",
		}),
		alertsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "httpmon_alert_transitions_total",
			Help: "Alert transitions by kind",
		}, []string{"kind"}),
		snapshots: f.NewCounter(prometheus.CounterOpts{
			Name: "httpmon_snapshots_total",
			Help: "Metrics snapshots emitted",
		}),
		snapRequests: f.NewGauge(prometheus.GaugeOpts{
			Name: "httpmon_snapshot_requests",
			Help: "Requests in the last snapshot window",
		}),
		snapBytes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "httpmon_snapshot_bytes",
			Help: "Bytes in the last snapshot window by direction",
		}, []string{"direction"}),
		snapSections: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "httpmon_snapshot_section_requests",
			Help: "Requests per section in the last snapshot window",
		}, []string{"section"}),
		snapStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "httpmon_snapshot_status_requests",
			Help: "Requests per status code in the last snapshot window",
		}, []string{"status"}),
		logicalTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "httpmon_logical_time_seconds",
			Help: "Current logical clock as epoch seconds",
		}),
		windowLoad: f.NewGauge(prometheus.GaugeOpts{
			Name: "httpmon_window_load",
			Help: "Requests in the alert window at the current logical time",
		}),
		recordsByKind: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "httpmon_records",
			Help: "Access-log records seen by outcome",
		}, []string{"outcome"}),
		buckets: f.NewGauge(prometheus.GaugeOpts{
			Name: "httpmon_buckets",
			Help: "Per-second buckets held in memory",
		}),
	}
}

// Registry returns the registry to expose over HTTP.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

func (p *Prometheus) AlertRaised(e model.AlertRaised) {
	p.alertActive.Set(1)
	p.alertLoad.Set(float64(e.Load))
	p.alertsTotal.WithLabelValues(model.EventAlertRaised).Inc()
}

func (p *Prometheus) AlertCleared(e model.AlertCleared) {
	p.alertActive.Set(0)
	p.alertLoad.Set(float64(e.Load))
	p.alertsTotal.WithLabelValues(model.EventAlertCleared).Inc()
}

func (p *Prometheus) MetricsSnapshot(e model.MetricsSnapshot) {
	p.snapshots.Inc()
	p.snapRequests.Set(float64(e.TotalRequests))
	p.snapBytes.WithLabelValues("total").Set(float64(e.TotalBytes))
	p.snapBytes.WithLabelValues("inbound").Set(float64(e.InboundBytes))
	p.snapBytes.WithLabelValues("outbound").Set(float64(e.OutboundBytes))

	// Label sets describe the last window only.
	p.snapSections.Reset()
	for section, count := range e.PerSection {
		p.snapSections.WithLabelValues(section).Set(float64(count))
	}
	p.snapStatus.Reset()
	for status, count := range e.PerStatus {
		p.snapStatus.WithLabelValues(status).Set(float64(count))
	}
}

// ObserveStatus mirrors the pipeline status into gauges.
func (p *Prometheus) ObserveStatus(s monitor.Status) {
	p.logicalTime.Set(float64(s.Now))
	p.windowLoad.Set(float64(s.Load))
	p.recordsByKind.WithLabelValues("ingested").Set(float64(s.Ingested))
	p.recordsByKind.WithLabelValues("rejected").Set(float64(s.Rejected))
	p.buckets.Set(float64(s.Buckets))
}
