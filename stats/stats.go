// Package stats exposes per-node Prometheus metrics for the coding
// engine: pool occupancy, knowledge-base size, retransmission attempts
// and drops, and encode/decode/control counts. Grounded on
// shurlinet-shurli/pkg/p2pnet/metrics.go's isolated-registry pattern
// (each Metrics instance gets its own prometheus.Registry so concurrent
// simulated nodes never collide on collector registration).
package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for a single node, labelled by that
// node's identifier so a shared registry could in principle aggregate
// many nodes (the simulator keeps one Metrics per node regardless).
type Metrics struct {
	Registry *prometheus.Registry

	PoolOccupancy   prometheus.Gauge
	KnowledgeBase   *prometheus.GaugeVec
	RetransQueueLen prometheus.Gauge

	NativesSent    prometheus.Counter
	NativesRecv    prometheus.Counter
	EncodedSent    prometheus.Counter
	EncodedRecv    prometheus.Counter
	ControlSent    prometheus.Counter
	ControlRecv    prometheus.Counter
	DecodeFailures prometheus.Counter
	RetransAttempts prometheus.Counter
	RetransDrops    prometheus.Counter
}

// New returns a Metrics instance for node nodeID, registered on its own
// isolated registry.
func New(nodeID string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		PoolOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cope_pool_occupancy",
			Help:        "Number of natives currently cached in this node's packet pool.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		KnowledgeBase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "cope_knowledge_base_size",
			Help:        "Number of CodingInfo entries believed known per neighbour.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}, []string{"neighbour"}),
		RetransQueueLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cope_retrans_queue_length",
			Help:        "Number of entries currently awaiting retransmission or ack.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		NativesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cope_natives_sent_total",
			Help:        "Total native packets transmitted.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		NativesRecv: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cope_natives_received_total",
			Help:        "Total native packets received.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		EncodedSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cope_encoded_sent_total",
			Help:        "Total encoded packets transmitted.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		EncodedRecv: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cope_encoded_received_total",
			Help:        "Total encoded packets received.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		ControlSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cope_control_sent_total",
			Help:        "Total control (ack-only) packets transmitted.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		ControlRecv: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cope_control_received_total",
			Help:        "Total control packets received.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		DecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cope_decode_failures_total",
			Help:        "Total encoded packets dropped due to a missing native.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		RetransAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cope_retrans_attempts_total",
			Help:        "Total retransmission attempts made.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
		RetransDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cope_retrans_drops_total",
			Help:        "Total transmit attempts refused because the retransmission queue was full.",
			ConstLabels: prometheus.Labels{"node": nodeID},
		}),
	}

	reg.MustRegister(
		m.PoolOccupancy,
		m.KnowledgeBase,
		m.RetransQueueLen,
		m.NativesSent,
		m.NativesRecv,
		m.EncodedSent,
		m.EncodedRecv,
		m.ControlSent,
		m.ControlRecv,
		m.DecodeFailures,
		m.RetransAttempts,
		m.RetransDrops,
	)

	return m
}

// Handler returns an http.Handler serving this node's metrics in
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
