// Package decode implements the helpers a leaf uses to recover its own
// native from an Encoded packet: partition the header's CodingInfo list
// into "mine" and "must already be in my pool", verify the latter are
// present, and fold the XOR back out. Grounded on the teacher's per-hop
// decrypt-then-verify shape (circuit/relay.go's decryptRelayLocked), with
// XOR replacing AES+digest (spec.md §4.4).
package decode

import (
	"github.com/Joku1806/COPE/errs"
	"github.com/Joku1806/COPE/packet"
	"github.com/Joku1806/COPE/pool"
)

// IdsForDecoding partitions infos into the one CodingInfo addressed to id
// (there must be exactly one on a well-formed Encoded addressed to id)
// and the pool indices of every other component, which must each already
// be present in p. Returns a *errs.DecodeError naming the first missing
// native if any component cannot be found.
func IdsForDecoding(id packet.NodeID, infos []packet.CodingInfo, p *pool.PacketPool) ([]int, packet.CodingInfo, error) {
	var mine packet.CodingInfo
	haveMine := false
	var indices []int

	for _, info := range infos {
		if info.NextHop == id {
			mine = info
			haveMine = true
			continue
		}
		idx := p.Position(info)
		if idx == -1 {
			return nil, packet.CodingInfo{}, &errs.DecodeError{Missing: info}
		}
		indices = append(indices, idx)
	}

	if !haveMine {
		return nil, packet.CodingInfo{}, &errs.DefectPacketError{Reason: "encoded packet does not address this node"}
	}

	return indices, mine, nil
}

// Decode XORs the pool entries at indices into encodedPayload, in any
// order (XOR is commutative and associative), yielding the recovered
// native payload. It does not remove the consumed pool entries; the
// caller does that once decoding has succeeded.
func Decode(indices []int, encodedPayload packet.PacketData, p *pool.PacketPool) packet.PacketData {
	result := encodedPayload.Clone()
	for _, idx := range indices {
		_, data, ok := p.At(idx)
		if !ok {
			continue
		}
		result.Xor(data)
	}
	return result
}
