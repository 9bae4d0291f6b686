// Package metrics exposes Prometheus collectors for the routing
// daemon, satisfying rip.Recorder without the core package needing to
// import a metrics client directly.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements rip.Recorder.
type Metrics struct {
	packetsReceived prometheus.Counter
	packetsDropped  prometheus.Counter
	entriesDropped  prometheus.Counter
	updatesSent     *prometheus.CounterVec
	tableSize       prometheus.Gauge
}

// New registers and returns the daemon's metric collectors.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		packetsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripd_packets_received_total",
			Help: "RIP datagrams that decoded successfully.",
		}),
		packetsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripd_packets_dropped_total",
			Help: "Datagrams dropped for failing header validation.",
		}),
		entriesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripd_entries_dropped_total",
			Help: "Individual RIP entries dropped for failing validation.",
		}),
		updatesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ripd_updates_sent_total",
			Help: "Response messages sent to neighbours, by kind.",
		}, []string{"kind"}),
		tableSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ripd_routing_table_size",
			Help: "Current number of entries in the routing table.",
		}),
	}
}

func (m *Metrics) PacketReceived() { m.packetsReceived.Inc() }
func (m *Metrics) PacketDropped()  { m.packetsDropped.Inc() }
func (m *Metrics) EntryDropped()   { m.entriesDropped.Inc() }

func (m *Metrics) UpdateSent(triggered bool) {
	if triggered {
		m.updatesSent.WithLabelValues("triggered").Inc()
		return
	}
	m.updatesSent.WithLabelValues("periodic").Inc()
}

func (m *Metrics) TableSize(n int) { m.tableSize.Set(float64(n)) }

// Handler returns the HTTP handler to serve metrics scrapes from.
func Handler() http.Handler { return promhttp.Handler() }
