// Package errs defines the typed error kinds the coding engine raises.
//
// Every fallible core operation returns one of these (wrapped with
// fmt.Errorf("...: %w", err) at call sites that add context), so callers
// can branch with errors.As instead of matching strings.
package errs

import (
	"errors"
	"fmt"

	"github.com/Joku1806/COPE/packet"
)

// ErrChannelClosed is returned by a Channel collaborator once it will never
// deliver or accept another packet.
var ErrChannelClosed = errors.New("channel closed")

// DecodeError reports that an Encoded packet was addressed to us but our
// pool lacks a native required to recover our payload. Recoverable: the
// packet is dropped and the missing native is expected to arrive, or the
// sender will retransmit.
type DecodeError struct {
	Missing packet.CodingInfo
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: missing native %+v in local pool", e.Missing)
}

// DefectPacketError reports a header variant encountered in a context that
// forbids it (e.g. the relay receiving an Encoded packet in the star
// topology). The packet is dropped.
type DefectPacketError struct {
	Reason string
}

func (e *DefectPacketError) Error() string {
	return "defect packet: " + e.Reason
}

// FullRetransQueueError reports that a strategy cannot originate or relay a
// new packet without forfeiting an older one. The caller must retry later;
// this is back-pressure, not a fatal condition.
type FullRetransQueueError struct {
	Capacity int
}

func (e *FullRetransQueueError) Error() string {
	return fmt.Sprintf("retransmission queue full (capacity %d)", e.Capacity)
}
