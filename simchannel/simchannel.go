// Package simchannel provides an in-process channel.Channel: a shared
// medium every simulated Node transmits onto and polls from. Grounded on
// the teacher's link.Link (a single physical connection each relay dials
// and exchanges cells over) reinterpreted as an in-memory broadcast
// medium shared by every node, since COPE's star topology has no
// point-to-point dial step (spec.md §1 Non-goals exclude real radio
// transport). The per-node buffered inbox and non-blocking poll mirror
// the other_examples OLSR simulation node's input <-chan interface{} /
// output chan<- interface{} channel wiring.
package simchannel

import (
	"math/rand/v2"
	"sync"

	"github.com/Joku1806/COPE/errs"
	"github.com/Joku1806/COPE/packet"
	"github.com/Joku1806/COPE/topology"
)

// Medium is the shared broadcast medium every node on the mesh attaches
// to via For. Delivery from sender to receiver succeeds only if the
// receiver's rx-whitelist includes sender, and is additionally dropped
// with probability lossRate to model an unreliable radio link
// (spec.md §8 scenario 3).
type Medium struct {
	mu       sync.Mutex
	topo     *topology.Topology
	lossRate float64
	inboxes  map[packet.NodeID][]packet.Packet
	closed   bool
}

// New returns a Medium spanning every node in topo, dropping delivered
// frames with probability lossRate (0 disables loss).
func New(topo *topology.Topology, lossRate float64) *Medium {
	m := &Medium{
		topo:     topo,
		lossRate: lossRate,
		inboxes:  make(map[packet.NodeID][]packet.Packet),
	}
	for _, id := range topo.Nodes() {
		m.inboxes[id] = nil
	}
	return m
}

// Close marks the medium closed; subsequent Transmit calls return
// errs.ErrChannelClosed and Receive calls report ok=false.
func (m *Medium) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// For returns a channel.Channel view of the medium as seen by id.
func (m *Medium) For(id packet.NodeID) *Endpoint {
	return &Endpoint{medium: m, id: id}
}

func (m *Medium) transmit(from packet.NodeID, p packet.Packet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errs.ErrChannelClosed
	}
	for _, id := range m.topo.Nodes() {
		if id == from {
			continue
		}
		if !m.topo.AcceptsFrom(id, from) {
			continue
		}
		if m.lossRate > 0 && rand.Float64() < m.lossRate {
			continue
		}
		m.inboxes[id] = append(m.inboxes[id], p)
	}
	return nil
}

func (m *Medium) receive(id packet.NodeID) (packet.Packet, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return packet.Packet{}, false, errs.ErrChannelClosed
	}
	inbox := m.inboxes[id]
	if len(inbox) == 0 {
		return packet.Packet{}, false, nil
	}
	p := inbox[0]
	m.inboxes[id] = inbox[1:]
	return p, true, nil
}

// Endpoint is the channel.Channel a single node holds to talk to a
// Medium. It satisfies github.com/Joku1806/COPE/channel.Channel.
type Endpoint struct {
	medium *Medium
	id     packet.NodeID
}

// Transmit broadcasts p onto the medium as if sent from this endpoint's
// node. p.Sender is expected to already equal the endpoint's NodeID.
func (e *Endpoint) Transmit(p packet.Packet) error {
	return e.medium.transmit(e.id, p)
}

// Receive is non-blocking: it pops the oldest packet delivered to this
// endpoint's inbox, or reports ok=false if none is waiting.
func (e *Endpoint) Receive() (packet.Packet, bool) {
	p, ok, err := e.medium.receive(e.id)
	if err != nil {
		return packet.Packet{}, false
	}
	return p, ok
}
