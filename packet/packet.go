// Package packet defines COPE's data model: node identifiers, the
// per-native coding descriptor, XOR-friendly payloads, acknowledgements,
// and the tagged Native/Encoded/Control header carried by every Packet.
package packet

import "fmt"

// NodeID is an opaque, small, totally-ordered node identifier. The
// reference design uses one uppercase ASCII letter per node; a byte is
// more than enough range and keeps CodingInfo cheap to copy.
type NodeID byte

func (id NodeID) String() string {
	return string(rune(id))
}

// PacketID is a monotonic per-source sequence number. It wraps at its max
// value; wraparound is rare relative to pool lifetime, so equality
// collisions across a wrap are tolerated (spec.md §3).
type PacketID uint32

// CodingInfo uniquely identifies one native packet's journey across one
// hop: who sent it, which sequence number, and who should receive it next.
type CodingInfo struct {
	Source  NodeID
	Seqno   PacketID
	NextHop NodeID
}

// Equal reports whether two CodingInfos name the same hop of the same
// native packet.
func (a CodingInfo) Equal(b CodingInfo) bool {
	return a.Source == b.Source && a.Seqno == b.Seqno && a.NextHop == b.NextHop
}

func (a CodingInfo) String() string {
	return fmt.Sprintf("{src:%s seq:%d nh:%s}", a.Source, a.Seqno, a.NextHop)
}

// Ack says that Source has successfully received or decoded every native
// listed in Packets.
type Ack struct {
	Source  NodeID
	Packets []CodingInfo
}

// Clone returns an Ack whose Packets slice does not alias the receiver's.
func (a Ack) Clone() Ack {
	packets := make([]CodingInfo, len(a.Packets))
	copy(packets, a.Packets)
	return Ack{Source: a.Source, Packets: packets}
}
