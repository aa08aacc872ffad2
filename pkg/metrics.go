package pkg

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds control-plane instrumentation counters. A nil *Metrics is
// valid and records nothing, so streams without a registry pay no cost.
type Metrics struct {
	probes           *prometheus.CounterVec
	privilegeDenials prometheus.Counter
	stillCaptures    prometheus.Counter
	streamStarts     prometheus.Counter
	streamStops      prometheus.Counter
}

// NewMetrics creates and registers control-plane collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		probes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "softuvc",
			Name:      "probe_total",
			Help:      "Device probe exchanges by pipeline and outcome.",
		}, []string{"pipeline", "outcome"}),
		privilegeDenials: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "softuvc",
			Name:      "privilege_denials_total",
			Help:      "Privilege acquisitions rejected because another handle was active.",
		}),
		stillCaptures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "softuvc",
			Name:      "still_captures_total",
			Help:      "Still-image capture triggers issued to the device.",
		}),
		streamStarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "softuvc",
			Name:      "stream_starts_total",
			Help:      "Successful video stream starts.",
		}),
		streamStops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "softuvc",
			Name:      "stream_stops_total",
			Help:      "Video stream stops.",
		}),
	}
}

// ObserveProbe records one probe exchange for the given pipeline
// ("video" or "still").
func (m *Metrics) ObserveProbe(pipeline string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.probes.WithLabelValues(pipeline, outcome).Inc()
}

// ObservePrivilegeDenial records one failed privilege acquisition.
func (m *Metrics) ObservePrivilegeDenial() {
	if m == nil {
		return
	}
	m.privilegeDenials.Inc()
}

// ObserveStillCapture records one still-capture trigger.
func (m *Metrics) ObserveStillCapture() {
	if m == nil {
		return
	}
	m.stillCaptures.Inc()
}

// ObserveStreamStart records one successful stream start.
func (m *Metrics) ObserveStreamStart() {
	if m == nil {
		return
	}
	m.streamStarts.Inc()
}

// ObserveStreamStop records one stream stop.
func (m *Metrics) ObserveStreamStop() {
	if m == nil {
		return
	}
	m.streamStops.Inc()
}
