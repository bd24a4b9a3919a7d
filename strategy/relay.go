package strategy

import (
	"time"

	"github.com/Joku1806/COPE/clock"
	"github.com/Joku1806/COPE/errs"
	"github.com/Joku1806/COPE/kbase"
	"github.com/Joku1806/COPE/packet"
	"github.com/Joku1806/COPE/pool"
	"github.com/Joku1806/COPE/retrans"
)

// RelayStrategy is the coding strategy run by the single designated
// relay: it ingests natives from every leaf, tracks what each leaf is
// known to possess, and opportunistically XOR-codes multiple natives
// addressed to distinct leaves into one Encoded transmission (spec.md
// §4.5). Grounded on the teacher's circuit.Circuit relay-side cell
// dispatch (per-hop ingest, re-derive outbound frame, forward), with the
// AES-relay-cell decrypt/re-encrypt step replaced by XOR coding.
type RelayStrategy struct {
	id          packet.NodeID
	txWhitelist []packet.NodeID
	useCoding   bool

	pool    *pool.PacketPool
	kb      *kbase.KnowledgeBase
	retrans *retrans.Queue

	acks                  []packet.Ack
	lastTxTime            time.Time
	clock                 clock.Clock
	controlPacketDuration time.Duration
}

// NewRelayStrategy constructs a RelayStrategy for id. txWhitelist is the
// relay's outgoing neighbour set (used to seed the KnowledgeBase and to
// order candidate next-hops when searching for coding opportunities).
func NewRelayStrategy(
	id packet.NodeID,
	txWhitelist []packet.NodeID,
	useCoding bool,
	poolCapacity int,
	retransInterval time.Duration,
	maxRetrans int,
	controlPacketDuration time.Duration,
	c clock.Clock,
) *RelayStrategy {
	if c == nil {
		c = clock.Real{}
	}
	return &RelayStrategy{
		id:                    id,
		txWhitelist:           append([]packet.NodeID(nil), txWhitelist...),
		useCoding:             useCoding,
		pool:                  pool.New(poolCapacity),
		kb:                    kbase.New(poolCapacity, txWhitelist),
		retrans:               retrans.New(poolCapacity, retransInterval, maxRetrans, c),
		lastTxTime:            c.Now(),
		clock:                 c,
		controlPacketDuration: controlPacketDuration,
	}
}

func (r *RelayStrategy) absorbAcks(acks []packet.Ack) {
	for _, a := range acks {
		for _, info := range a.Packets {
			r.retrans.RemoveByInfo(info)
		}
		r.acks = append(r.acks, a.Clone())
	}
}

// HandleRX implements spec.md §4.5's handle_rx.
func (r *RelayStrategy) HandleRX(p packet.Packet) (packet.PacketData, error) {
	switch p.CodingHeader.Kind {
	case packet.KindControl:
		r.absorbAcks(p.AckHeader)
		return nil, nil

	case packet.KindEncoded:
		return nil, &errs.DefectPacketError{Reason: "relay received an Encoded packet"}

	case packet.KindNative:
		r.absorbAcks(p.AckHeader)
		info := p.CodingHeader.Native
		r.kb.Insert(p.Sender, info)
		r.pool.Push(info, p.Data)
		return p.Data, nil

	default:
		return nil, &errs.DefectPacketError{Reason: "unknown coding header kind"}
	}
}

func (r *RelayStrategy) shouldTxControl() bool {
	return len(r.acks) > 0 && r.clock.Now().Sub(r.lastTxTime) > r.controlPacketDuration
}

func (r *RelayStrategy) buildControl() (*packet.Packet, error) {
	header := packet.NewControlHeader(r.txWhitelist[0])
	acks := cloneAcks(r.acks)
	r.acks = nil
	pkt, err := packet.NewBuilder().Sender(r.id).Header(header).Acks(acks).Build()
	if err != nil {
		return nil, err
	}
	return &pkt, nil
}

// HandleTX implements spec.md §4.5's handle_tx.
func (r *RelayStrategy) HandleTX() (*packet.Packet, error) {
	if due, ok := r.retrans.NextDue(); ok {
		pkt := r.codePacket(due.Info, due.Data)
		return &pkt, nil
	}

	if r.retrans.IsFull() {
		return nil, &errs.FullRetransQueueError{Capacity: r.retrans.Capacity()}
	}

	if r.pool.Count() < 2 {
		if r.shouldTxControl() {
			return r.buildControl()
		}
		return nil, nil
	}

	info, data, ok := r.pool.PopFront()
	if !ok {
		return nil, nil
	}
	pkt := r.codePacket(info, data)
	return &pkt, nil
}

// UpdateLastSend implements Strategy.
func (r *RelayStrategy) UpdateLastSend(now time.Time) {
	r.lastTxTime = now
}

// PoolOccupancy reports how many natives are currently cached, for stats.
func (r *RelayStrategy) PoolOccupancy() int {
	return r.pool.Count()
}

// RetransQueueLen reports how many entries await retransmission or ack.
func (r *RelayStrategy) RetransQueueLen() int {
	return r.retrans.Len()
}

// KnowledgeSizes reports, per tx-whitelist neighbour, how many CodingInfo
// entries the relay currently believes that neighbour possesses.
func (r *RelayStrategy) KnowledgeSizes() map[packet.NodeID]int {
	out := make(map[packet.NodeID]int, len(r.txWhitelist))
	for _, nh := range r.txWhitelist {
		out[nh] = r.kb.Len(nh)
	}
	return out
}

type codingMember struct {
	info packet.CodingInfo
	data packet.PacketData
}

// codePacket implements spec.md §4.5's code_packet: grow the XOR set
// P starting from (info, data) by greedily absorbing one pooled native
// per tx-whitelist neighbour, so long as the resulting set remains
// jointly decodable by every recipient, then fold the XOR and attach
// pending acks.
func (r *RelayStrategy) codePacket(info packet.CodingInfo, data packet.PacketData) packet.Packet {
	members := []codingMember{{info: info, data: data}}

	if r.useCoding {
		for _, nh := range r.txWhitelist {
			cand, candData, ok := r.pool.PeekNextHopFront(nh)
			if !ok {
				continue
			}
			if !r.allNextHopsCanDecode(members, cand) {
				continue
			}
			r.pool.PopNextHopFront(nh)
			members = append(members, codingMember{info: cand, data: candData})
		}
	}

	headerInfos := make([]packet.CodingInfo, len(members))
	payload := members[0].data.Clone()
	for i, m := range members {
		headerInfos[i] = m.info
		if i > 0 {
			payload.Xor(m.data)
		}
	}

	for _, m := range members {
		if r.retrans.Contains(m.info) {
			r.retrans.RemoveByInfo(m.info)
			if !r.retrans.IsFull() {
				r.retrans.PushNew(m.info, m.data)
			}
		}
	}

	header := packet.NewEncodedHeader(headerInfos)
	acks := cloneAcks(r.acks)
	r.acks = nil

	pkt, err := packet.NewBuilder().Sender(r.id).Header(header).Acks(acks).Data(payload).Build()
	if err != nil {
		// members always has at least one entry with non-empty data, so
		// Build cannot fail here; a failure would be a programming error.
		panic(err)
	}
	return pkt
}

// allNextHopsCanDecode implements spec.md §4.5's all_next_hops_can_decode.
func (r *RelayStrategy) allNextHopsCanDecode(members []codingMember, candidate packet.CodingInfo) bool {
	for _, m := range members {
		if m.info.NextHop == candidate.NextHop {
			return false
		}
	}

	set := make([]packet.CodingInfo, 0, len(members)+1)
	for _, m := range members {
		set = append(set, m.info)
	}
	set = append(set, candidate)

	nextHops := make(map[packet.NodeID]bool, len(set))
	for _, e := range set {
		nextHops[e.NextHop] = true
	}

	for nh := range nextHops {
		for _, e := range set {
			if e.NextHop == nh {
				continue
			}
			if !r.kb.Knows(nh, e) {
				return false
			}
		}
	}
	return true
}
