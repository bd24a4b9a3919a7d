// Package strategy implements the two coding strategies that drive a
// Node's receive/transmit behaviour: RelayStrategy and LeafStrategy
// (spec.md §4.5, §4.6, §9). The strategy abstraction is a closed,
// compile-time-fixed variant set dispatched through the Strategy
// interface, matching the teacher's use of a small capability interface
// to unify otherwise-distinct per-role connection handlers (compare
// circuit.Circuit's relay/origin split) rather than a runtime-checked
// tagged union.
package strategy

import (
	"time"

	"github.com/Joku1806/COPE/packet"
)

// Strategy is the polymorphic dispatch surface a Node drives once per
// tick: one non-blocking receive handler and one non-blocking transmit
// handler, plus the hook the Node calls after every successful
// transmission (spec.md §9 "update_last_packet_send").
type Strategy interface {
	// HandleRX processes one received Packet, returning any payload that
	// should be surfaced to upstream logging/accounting (nil when there
	// is none), or an error for a malformed or undecodable packet.
	HandleRX(p packet.Packet) (packet.PacketData, error)

	// HandleTX produces the next Packet this node should transmit, or
	// (nil, nil) if there is nothing to send this tick. A non-nil error
	// (typically *errs.FullRetransQueueError) signals back-pressure.
	HandleTX() (*packet.Packet, error)

	// UpdateLastSend records that a transmission succeeded at now.
	UpdateLastSend(now time.Time)
}

func cloneAcks(acks []packet.Ack) []packet.Ack {
	out := make([]packet.Ack, len(acks))
	for i, a := range acks {
		out[i] = a.Clone()
	}
	return out
}

func cloneCodingInfos(infos []packet.CodingInfo) []packet.CodingInfo {
	out := make([]packet.CodingInfo, len(infos))
	copy(out, infos)
	return out
}
