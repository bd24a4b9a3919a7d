// Package retrans implements the RetransmissionQueue: a bounded,
// insertion-ordered set of pending natives with a per-entry attempt
// counter and timed re-send, modeled on the window/threshold/action
// shape of the teacher's SENDME flow control (stream/flow.go) but
// generalized from a receive-side counter to a send-side timed budget
// (spec.md §3, §4.3).
package retrans

import (
	"time"

	"github.com/Joku1806/COPE/clock"
	"github.com/Joku1806/COPE/packet"
)

// Entry is one pending retransmission: the native's descriptor and
// payload, how many times it has been sent, and when it was last sent.
type Entry struct {
	Info     packet.CodingInfo
	Data     packet.PacketData
	Attempts int
	LastTxAt time.Time
}

// Queue is the bounded, insertion-ordered RetransmissionQueue.
type Queue struct {
	capacity   int
	interval   time.Duration
	maxRetrans int
	clock      clock.Clock
	entries    []Entry
}

// New returns a Queue bounded to capacity entries, retrying every
// interval up to maxRetrans attempts, reading time from c.
func New(capacity int, interval time.Duration, maxRetrans int, c clock.Clock) *Queue {
	if c == nil {
		c = clock.Real{}
	}
	return &Queue{capacity: capacity, interval: interval, maxRetrans: maxRetrans, clock: c}
}

// IsFull reports whether the queue is at capacity. Callers must not
// originate fresh natives while IsFull returns true (back-pressure).
func (q *Queue) IsFull() bool {
	return q.capacity > 0 && len(q.entries) >= q.capacity
}

// Capacity returns the queue's maximum size.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Contains reports whether info is already tracked in the queue.
func (q *Queue) Contains(info packet.CodingInfo) bool {
	return q.indexOf(info) != -1
}

func (q *Queue) indexOf(info packet.CodingInfo) int {
	for i, e := range q.entries {
		if e.Info.Equal(info) {
			return i
		}
	}
	return -1
}

// PushNew adds a freshly-originated native with attempts=0 and
// last_tx_time=now. Callers must check IsFull first.
func (q *Queue) PushNew(info packet.CodingInfo, data packet.PacketData) {
	q.entries = append(q.entries, Entry{
		Info:     info,
		Data:     data.Clone(),
		Attempts: 0,
		LastTxAt: q.clock.Now(),
	})
}

// RemoveByInfo removes the entry matching info, typically in response to
// a piggybacked Ack. Reports whether an entry was removed.
func (q *Queue) RemoveByInfo(info packet.CodingInfo) bool {
	idx := q.indexOf(info)
	if idx == -1 {
		return false
	}
	q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
	return true
}

// NextDue scans in insertion order (fairness: oldest due entry fires
// first) and returns the first entry whose last send was at least
// interval ago. The returned entry's attempt counter is bumped and its
// last-send time set to now. When that increment brings Attempts to
// maxRetrans, this was the entry's final allowed attempt and it is
// removed from the queue before NextDue returns.
func (q *Queue) NextDue() (Entry, bool) {
	now := q.clock.Now()
	for i := range q.entries {
		e := &q.entries[i]
		if now.Sub(e.LastTxAt) < q.interval {
			continue
		}

		preAttempts := e.Attempts
		e.Attempts++
		e.LastTxAt = now
		due := *e

		if preAttempts+1 >= q.maxRetrans {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
		}
		return due, true
	}
	return Entry{}, false
}
