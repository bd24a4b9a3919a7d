// Package node wires one mesh participant's Strategy to a Channel and
// its Metrics: receive whatever is waiting, hand it to the strategy,
// transmit whatever the strategy produces, and keep the gauges current.
// Grounded on the teacher's cmd/tor-client/main.go run loop (load state,
// then drive a long-running send/receive cycle until signalled to stop),
// generalized from a one-shot SOCKS proxy lifetime to a repeating tick.
package node

import (
	"context"
	"log/slog"
	"time"

	"github.com/Joku1806/COPE/channel"
	"github.com/Joku1806/COPE/clock"
	"github.com/Joku1806/COPE/errs"
	"github.com/Joku1806/COPE/packet"
	"github.com/Joku1806/COPE/stats"
	"github.com/Joku1806/COPE/strategy"
	"github.com/Joku1806/COPE/topology"
)

// poolReporter is implemented by both strategy.RelayStrategy and
// strategy.LeafStrategy; it is optional on the Strategy interface
// itself since nothing in the coding algorithm needs it.
type poolReporter interface {
	PoolOccupancy() int
}

type retransReporter interface {
	RetransQueueLen() int
}

type knowledgeReporter interface {
	KnowledgeSizes() map[packet.NodeID]int
}

// Node is one mesh participant: an identity, the coding Strategy driving
// its behaviour, the Channel it shares the medium through, and the
// Metrics it reports to.
type Node struct {
	id       packet.NodeID
	strategy strategy.Strategy
	channel  channel.Channel
	topo     *topology.Topology
	metrics  *stats.Metrics
	clock    clock.Clock
	logger   *slog.Logger
}

// New returns a Node. logger may be nil, in which case slog.Default() is
// used.
func New(id packet.NodeID, strat strategy.Strategy, ch channel.Channel, topo *topology.Topology, metrics *stats.Metrics, c clock.Clock, logger *slog.Logger) *Node {
	if c == nil {
		c = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{id: id, strategy: strat, channel: ch, topo: topo, metrics: metrics, clock: c, logger: logger}
}

// ID returns the node's identity.
func (n *Node) ID() packet.NodeID {
	return n.id
}

// Tick performs one non-blocking receive and one non-blocking transmit
// attempt, in that order (spec.md §9: a node's loop is "try to receive,
// then try to send, every tick").
func (n *Node) Tick() {
	n.tryReceive()
	n.tryTransmit()
	n.updateGauges()
}

func (n *Node) tryReceive() {
	p, ok := n.channel.Receive()
	if !ok {
		return
	}
	if n.topo != nil && !n.topo.AcceptsFrom(n.id, p.Sender) {
		// A defensive second check: simchannel already enforces the
		// rx-whitelist at delivery time, but a Channel implementation
		// outside this module might not.
		return
	}

	switch p.CodingHeader.Kind {
	case packet.KindNative:
		n.metrics.NativesRecv.Inc()
	case packet.KindEncoded:
		n.metrics.EncodedRecv.Inc()
	case packet.KindControl:
		n.metrics.ControlRecv.Inc()
	}

	if _, err := n.strategy.HandleRX(p); err != nil {
		n.handleRXError(err)
	}
}

func (n *Node) handleRXError(err error) {
	switch e := err.(type) {
	case *errs.DecodeError:
		n.metrics.DecodeFailures.Inc()
		n.logger.Debug("dropped encoded packet: missing native", "node", n.id, "missing", e.Missing)
	case *errs.DefectPacketError:
		n.logger.Warn("dropped defect packet", "node", n.id, "reason", e.Reason)
	default:
		n.logger.Warn("handle rx failed", "node", n.id, "error", err)
	}
}

func (n *Node) tryTransmit() {
	pkt, err := n.strategy.HandleTX()
	if err != nil {
		if _, ok := err.(*errs.FullRetransQueueError); ok {
			n.metrics.RetransDrops.Inc()
			n.logger.Debug("back-pressure: retransmission queue full", "node", n.id)
			return
		}
		n.logger.Warn("handle tx failed", "node", n.id, "error", err)
		return
	}
	if pkt == nil {
		return
	}

	if err := n.channel.Transmit(*pkt); err != nil {
		n.logger.Warn("transmit failed", "node", n.id, "error", err)
		return
	}

	switch pkt.CodingHeader.Kind {
	case packet.KindNative:
		n.metrics.NativesSent.Inc()
	case packet.KindEncoded:
		n.metrics.EncodedSent.Inc()
	case packet.KindControl:
		n.metrics.ControlSent.Inc()
	}

	n.strategy.UpdateLastSend(n.clock.Now())
}

func (n *Node) updateGauges() {
	if pr, ok := n.strategy.(poolReporter); ok {
		n.metrics.PoolOccupancy.Set(float64(pr.PoolOccupancy()))
	}
	if rr, ok := n.strategy.(retransReporter); ok {
		n.metrics.RetransQueueLen.Set(float64(rr.RetransQueueLen()))
	}
	if kr, ok := n.strategy.(knowledgeReporter); ok {
		for nh, size := range kr.KnowledgeSizes() {
			n.metrics.KnowledgeBase.WithLabelValues(nh.String()).Set(float64(size))
		}
	}
}

// Run ticks the node every interval until ctx is cancelled.
func (n *Node) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.Tick()
		}
	}
}
