// Package pool implements PacketPool, the bounded FIFO cache of recently
// seen natives that the relay peeks per next-hop when building an Encoded
// packet and that leaves consult when decoding one (spec.md §4.1).
package pool

import "github.com/Joku1806/COPE/packet"

// entry pairs a native's coding descriptor with its payload.
type entry struct {
	info packet.CodingInfo
	data packet.PacketData
}

// PacketPool is a bounded ring of at most Capacity natives. On overflow
// the oldest entry is evicted before the new one is pushed. Only
// Native-headered packets may ever be pushed; pushing anything else is a
// programming error the caller must not make (spec.md §4.1).
type PacketPool struct {
	capacity int
	entries  []entry
}

// New returns an empty PacketPool bounded to capacity entries.
func New(capacity int) *PacketPool {
	return &PacketPool{capacity: capacity}
}

// Capacity returns the pool's maximum size.
func (p *PacketPool) Capacity() int {
	return p.capacity
}

// Count returns the number of entries currently held.
func (p *PacketPool) Count() int {
	return len(p.entries)
}

// Push adds (info, data) to the pool, evicting the oldest entry first if
// the pool is already at capacity.
func (p *PacketPool) Push(info packet.CodingInfo, data packet.PacketData) {
	if p.capacity > 0 && len(p.entries) >= p.capacity {
		p.entries = p.entries[1:]
	}
	p.entries = append(p.entries, entry{info: info, data: data.Clone()})
}

// PopFront removes and returns the oldest entry, if any.
func (p *PacketPool) PopFront() (packet.CodingInfo, packet.PacketData, bool) {
	if len(p.entries) == 0 {
		return packet.CodingInfo{}, nil, false
	}
	e := p.entries[0]
	p.entries = p.entries[1:]
	return e.info, e.data, true
}

// PeekNextHopFront returns the oldest entry whose NextHop equals nh,
// without removing it.
func (p *PacketPool) PeekNextHopFront(nh packet.NodeID) (packet.CodingInfo, packet.PacketData, bool) {
	for _, e := range p.entries {
		if e.info.NextHop == nh {
			return e.info, e.data, true
		}
	}
	return packet.CodingInfo{}, nil, false
}

// PopNextHopFront removes and returns the oldest entry whose NextHop
// equals nh.
func (p *PacketPool) PopNextHopFront(nh packet.NodeID) (packet.CodingInfo, packet.PacketData, bool) {
	for i, e := range p.entries {
		if e.info.NextHop == nh {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return e.info, e.data, true
		}
	}
	return packet.CodingInfo{}, nil, false
}

// Position returns the index of the entry whose CodingInfo equals info,
// or -1 if none matches.
func (p *PacketPool) Position(info packet.CodingInfo) int {
	for i, e := range p.entries {
		if e.info.Equal(info) {
			return i
		}
	}
	return -1
}

// At returns the entry at the given pool index.
func (p *PacketPool) At(index int) (packet.CodingInfo, packet.PacketData, bool) {
	if index < 0 || index >= len(p.entries) {
		return packet.CodingInfo{}, nil, false
	}
	e := p.entries[index]
	return e.info, e.data, true
}

// RemoveAt removes the entry at the given index. Indices passed to
// RemoveAt from the same caller must be processed from highest to lowest
// to remain valid across multiple removals, since removal shifts later
// indices down by one.
func (p *PacketPool) RemoveAt(index int) bool {
	if index < 0 || index >= len(p.entries) {
		return false
	}
	p.entries = append(p.entries[:index], p.entries[index+1:]...)
	return true
}
