// Package channel defines the Channel contract (spec.md §6): the
// link-layer collaborator every Node transmits through and receives
// from. The core depends only on this interface; simchannel provides an
// in-process implementation for tests and the simulator binary. A real
// radio implementation is an external collaborator outside this
// module's scope.
package channel

import "github.com/Joku1806/COPE/packet"

// Channel delivers packets to, and accepts packets from, the shared
// medium a Node sits on.
type Channel interface {
	// Transmit delivers p to every other node whose rx-whitelist
	// includes p.Sender. Exactly-once delivery is not promised; the
	// protocol tolerates drops via retransmission. Returns an error only
	// on unrecoverable failure (unknown receiver, medium fault).
	Transmit(p packet.Packet) error

	// Receive is non-blocking: it returns the next delivered packet, or
	// ok=false if none is currently available.
	Receive() (p packet.Packet, ok bool)
}
