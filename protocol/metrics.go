package protocol

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded by Metrics.
const (
	outcomeOK     = "ok"
	outcomeRemote = "remote_error"
	outcomeIO     = "io_error"
)

// Metrics counts requests and events seen by sockets sharing it.
// A nil *Metrics records nothing.
type Metrics struct {
	requests   *prometheus.CounterVec
	events     *prometheus.CounterVec
	streamEnds prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "niri_socket",
			Name:      "requests_total",
			Help:      "Requests sent to niri by request kind and outcome.",
		}, []string{"request", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "niri_socket",
			Name:      "events_total",
			Help:      "Events received from niri by event kind.",
		}, []string{"event"}),
		streamEnds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "niri_socket",
			Name:      "event_stream_terminations_total",
			Help:      "Event streams that ended with an error.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.events, m.streamEnds} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRequest(kind, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) observeEvent(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeStreamEnd() {
	if m == nil {
		return
	}
	m.streamEnds.Inc()
}
