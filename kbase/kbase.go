// Package kbase implements the relay's KnowledgeBase: a per-neighbour
// bounded FIFO of CodingInfo describing what that neighbour is known to
// possess (spec.md §3, §4.2).
package kbase

import "github.com/Joku1806/COPE/packet"

// KnowledgeBase maps each neighbour the relay transmits toward to a
// bounded, insertion-ordered list of CodingInfo it is known to have.
type KnowledgeBase struct {
	capacity int
	entries  map[packet.NodeID][]packet.CodingInfo
}

// New returns a KnowledgeBase with one empty, capacity-bounded list per
// entry in txWhitelist (spec.md §3: "seeded with one entry per node in
// the relay's tx-whitelist").
func New(capacity int, txWhitelist []packet.NodeID) *KnowledgeBase {
	kb := &KnowledgeBase{
		capacity: capacity,
		entries:  make(map[packet.NodeID][]packet.CodingInfo, len(txWhitelist)),
	}
	for _, nh := range txWhitelist {
		kb.entries[nh] = nil
	}
	return kb
}

// Insert appends info to nh's list, evicting the oldest entry first if
// the list is already at capacity.
func (kb *KnowledgeBase) Insert(nh packet.NodeID, info packet.CodingInfo) {
	list := kb.entries[nh]
	if kb.capacity > 0 && len(list) >= kb.capacity {
		list = list[1:]
	}
	kb.entries[nh] = append(list, info)
}

// Knows reports whether nh is known to possess info.
func (kb *KnowledgeBase) Knows(nh packet.NodeID, info packet.CodingInfo) bool {
	for _, known := range kb.entries[nh] {
		if known.Equal(info) {
			return true
		}
	}
	return false
}

// Len returns the number of entries tracked for nh.
func (kb *KnowledgeBase) Len(nh packet.NodeID) int {
	return len(kb.entries[nh])
}
