package strategy

import (
	"sort"
	"time"

	"github.com/Joku1806/COPE/clock"
	"github.com/Joku1806/COPE/decode"
	"github.com/Joku1806/COPE/errs"
	"github.com/Joku1806/COPE/packet"
	"github.com/Joku1806/COPE/pool"
	"github.com/Joku1806/COPE/retrans"
	"github.com/Joku1806/COPE/traffic"
)

// LeafStrategy is the coding strategy run by every non-relay node: it
// originates its own traffic, decodes Encoded packets addressed to it,
// and retransmits until acknowledged (spec.md §4.6). Grounded on the
// teacher's stream.Stream client-side SENDME/DATA bookkeeping,
// generalized from byte-window flow control to per-native
// retransmission and XOR decode.
type LeafStrategy struct {
	id          packet.NodeID
	relay       packet.NodeID
	txWhitelist []packet.NodeID

	pool      *pool.PacketPool
	retrans   *retrans.Queue
	generator traffic.Generator

	acks                  []packet.CodingInfo
	lastTxTime            time.Time
	clock                 clock.Clock
	controlPacketDuration time.Duration
	nextSeqno             packet.PacketID
}

// NewLeafStrategy constructs a LeafStrategy for id, whose designated
// relay is relay. txWhitelist is the set of peers id may address
// traffic to (spec.md §6) — in the star topology this is the other
// leaves, never the relay itself, since the relay is a physical hop,
// not an addressable destination. It supplies both the candidate set
// the traffic generator picks a next-hop from and the Control header's
// canonical recipient (its first entry).
func NewLeafStrategy(
	id packet.NodeID,
	relay packet.NodeID,
	txWhitelist []packet.NodeID,
	poolCapacity int,
	retransInterval time.Duration,
	maxRetrans int,
	controlPacketDuration time.Duration,
	generator traffic.Generator,
	c clock.Clock,
) *LeafStrategy {
	if c == nil {
		c = clock.Real{}
	}
	return &LeafStrategy{
		id:                    id,
		relay:                 relay,
		txWhitelist:           append([]packet.NodeID(nil), txWhitelist...),
		pool:                  pool.New(poolCapacity),
		retrans:               retrans.New(poolCapacity, retransInterval, maxRetrans, c),
		generator:             generator,
		lastTxTime:            c.Now(),
		clock:                 c,
		controlPacketDuration: controlPacketDuration,
	}
}

func (l *LeafStrategy) absorbAcks(acks []packet.Ack) {
	for _, a := range acks {
		for _, info := range a.Packets {
			l.retrans.RemoveByInfo(info)
		}
	}
}

// HandleRX implements spec.md §4.6's handle_rx.
func (l *LeafStrategy) HandleRX(p packet.Packet) (packet.PacketData, error) {
	if p.Sender != l.relay {
		// Overhearing opportunity: leaves return but do not store
		// overheard natives (spec.md §9's third open question resolves
		// this as implementation-defined; this implementation never
		// pools anything it receives, from the relay or anyone else —
		// the pool holds only the leaf's own originated natives).
		return p.Data, nil
	}

	l.absorbAcks(p.AckHeader)

	switch p.CodingHeader.Kind {
	case packet.KindNative:
		return p.Data, nil

	case packet.KindEncoded:
		infos := p.CodingHeader.Encoded
		if !packet.IsNextHop(l.id, infos) {
			return p.Data, nil
		}
		indices, mine, err := decode.IdsForDecoding(l.id, infos, l.pool)
		if err != nil {
			return nil, err
		}
		recovered := decode.Decode(indices, p.Data, l.pool)
		removeIndicesDescending(l.pool, indices)
		l.acks = append(l.acks, mine)
		return recovered, nil

	case packet.KindControl:
		return nil, nil

	default:
		return nil, &errs.DefectPacketError{Reason: "unknown coding header kind"}
	}
}

// removeIndicesDescending removes the given pool indices, highest first,
// so earlier removals never invalidate later ones (pool.PacketPool.RemoveAt
// shifts later indices down by one).
func removeIndicesDescending(p *pool.PacketPool, indices []int) {
	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	for _, idx := range sorted {
		p.RemoveAt(idx)
	}
}

func (l *LeafStrategy) shouldTxControl() bool {
	return len(l.acks) > 0 && l.clock.Now().Sub(l.lastTxTime) > l.controlPacketDuration
}

func (l *LeafStrategy) takeAckHeader() []packet.Ack {
	if len(l.acks) == 0 {
		l.acks = nil
		return nil
	}
	ack := packet.Ack{Source: l.id, Packets: cloneCodingInfos(l.acks)}
	l.acks = nil
	return []packet.Ack{ack}
}

// HandleTX implements spec.md §4.6's handle_tx.
func (l *LeafStrategy) HandleTX() (*packet.Packet, error) {
	if due, ok := l.retrans.NextDue(); ok {
		header := packet.NewNativeHeader(due.Info)
		pkt, err := packet.NewBuilder().Sender(l.id).Header(header).Acks(l.takeAckHeader()).Data(due.Data).Build()
		if err != nil {
			return nil, err
		}
		l.pool.Push(due.Info, due.Data)
		return &pkt, nil
	}

	if l.retrans.IsFull() {
		return nil, &errs.FullRetransQueueError{Capacity: l.retrans.Capacity()}
	}

	if l.shouldTxControl() {
		header := packet.NewControlHeader(l.txWhitelist[0])
		pkt, err := packet.NewBuilder().Sender(l.id).Header(header).Acks(l.takeAckHeader()).Build()
		if err != nil {
			return nil, err
		}
		return &pkt, nil
	}

	if !l.generator.ShouldOriginate() {
		return nil, nil
	}

	nh := l.generator.ChosenReceiver(l.txWhitelist)
	info := packet.CodingInfo{Source: l.id, Seqno: l.nextSeqno, NextHop: nh}
	l.nextSeqno++
	data := l.generator.Payload()

	header := packet.NewNativeHeader(info)
	pkt, err := packet.NewBuilder().Sender(l.id).Header(header).Acks(l.takeAckHeader()).Data(data).Build()
	if err != nil {
		return nil, err
	}
	l.pool.Push(info, data)
	l.retrans.PushNew(info, data)
	return &pkt, nil
}

// UpdateLastSend implements Strategy.
func (l *LeafStrategy) UpdateLastSend(now time.Time) {
	l.lastTxTime = now
}

// PoolOccupancy reports how many natives are currently cached, for stats.
func (l *LeafStrategy) PoolOccupancy() int {
	return l.pool.Count()
}

// RetransQueueLen reports how many entries await retransmission or ack.
func (l *LeafStrategy) RetransQueueLen() int {
	return l.retrans.Len()
}
