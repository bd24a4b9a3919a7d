// Package topology holds the immutable, startup-loaded view of the mesh
// each node consults: who the relay is, and who it may hear from / speak
// to (spec.md §3, §4.7). Grounded on the teacher's directory.Consensus /
// pathselect.Path — an immutable, once-loaded view of network structure
// consumed read-only by the rest of the system — generalized here from a
// fetched-and-voted consensus to a statically configured star topology
// (spec.md §1 Non-goals exclude dynamic peer discovery).
package topology

import "github.com/Joku1806/COPE/packet"

// Topology is immutable once constructed.
type Topology struct {
	relay       packet.NodeID
	rxWhitelist map[packet.NodeID][]packet.NodeID
	txWhitelist map[packet.NodeID][]packet.NodeID
	nodes       []packet.NodeID
}

// New builds a Topology from the relay's identity and per-node
// whitelists. The maps are copied so later mutation by the caller cannot
// affect the Topology.
func New(relay packet.NodeID, nodes []packet.NodeID, rx, tx map[packet.NodeID][]packet.NodeID) *Topology {
	t := &Topology{
		relay:       relay,
		rxWhitelist: make(map[packet.NodeID][]packet.NodeID, len(rx)),
		txWhitelist: make(map[packet.NodeID][]packet.NodeID, len(tx)),
		nodes:       append([]packet.NodeID(nil), nodes...),
	}
	for id, list := range rx {
		t.rxWhitelist[id] = append([]packet.NodeID(nil), list...)
	}
	for id, list := range tx {
		t.txWhitelist[id] = append([]packet.NodeID(nil), list...)
	}
	return t
}

// Relay returns the identity of the single designated relay.
func (t *Topology) Relay() packet.NodeID {
	return t.relay
}

// IsRelay reports whether id is the designated relay.
func (t *Topology) IsRelay(id packet.NodeID) bool {
	return id == t.relay
}

// Nodes returns every node identifier known to the mesh.
func (t *Topology) Nodes() []packet.NodeID {
	return append([]packet.NodeID(nil), t.nodes...)
}

// RxWhitelist returns the set of senders id will accept frames from.
func (t *Topology) RxWhitelist(id packet.NodeID) []packet.NodeID {
	return append([]packet.NodeID(nil), t.rxWhitelist[id]...)
}

// TxWhitelist returns the set of recipients id may address traffic to.
func (t *Topology) TxWhitelist(id packet.NodeID) []packet.NodeID {
	return append([]packet.NodeID(nil), t.txWhitelist[id]...)
}

// AcceptsFrom reports whether id will accept a frame sent by sender.
func (t *Topology) AcceptsFrom(id, sender packet.NodeID) bool {
	for _, allowed := range t.rxWhitelist[id] {
		if allowed == sender {
			return true
		}
	}
	return false
}
