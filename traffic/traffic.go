// Package traffic implements the generators that decide when and what a
// leaf node originates as its next native payload (spec.md §9's "traffic
// generator" external collaborator, config.GeneratorType). Grounded on
// the teacher's socks.Server, generalized from "accept a connection,
// relay its bytes" to "decide it is time to originate a packet", and
// paced with golang.org/x/time/rate the way the wider pack's dependency
// graph (shurlinet-shurli/go.mod) carries it for exactly this kind of
// token-bucket admission decision.
package traffic

import (
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/Joku1806/COPE/clock"
	"github.com/Joku1806/COPE/config"
	"github.com/Joku1806/COPE/packet"
)

// Generator is the external source of "next native payload" a leaf's
// handle_tx consults once it has nothing else to send (spec.md §4.6
// step 4).
type Generator interface {
	// ShouldOriginate reports whether the node should originate a new
	// native payload right now.
	ShouldOriginate() bool
	// Payload returns the bytes of the next originated native.
	Payload() packet.PacketData
	// ChosenReceiver picks the next-hop for the next origination from
	// candidates (the node's tx-whitelist).
	ChosenReceiver(candidates []packet.NodeID) packet.NodeID
}

// seq is embedded by every Generator implementation: it supplies the
// shared Payload/ChosenReceiver behaviour so each generator only has to
// implement its own timing decision.
type seq struct {
	counter byte
}

// Payload returns a one-byte payload carrying a wrapping per-node
// sequence counter, sufficient to tell originated natives apart in
// tests and stats without modeling real application data.
func (s *seq) Payload() packet.PacketData {
	s.counter++
	return packet.PacketData{s.counter}
}

// ChosenReceiver always picks the first tx-whitelist entry. A leaf's
// tx-whitelist names the other leaves it may address, never the relay;
// with more than one entry, the later entries are never chosen.
func (s *seq) ChosenReceiver(candidates []packet.NodeID) packet.NodeID {
	if len(candidates) == 0 {
		return 0
	}
	return candidates[0]
}

// New builds the Generator described by cfg, reading time from c so a
// fake clock controls when the timed generators fire. The random kind's
// jitter comes from math/rand/v2's global source and is not
// deterministic.
func New(cfg config.TrafficConfig, c clock.Clock) Generator {
	if c == nil {
		c = clock.Real{}
	}
	switch cfg.Type {
	case config.GeneratorGreedy:
		return &greedy{}
	case config.GeneratorPoisson:
		return &poisson{clock: c, rate: cfg.Rate}
	case config.GeneratorRandom:
		return &random{clock: c, rate: cfg.Rate}
	case config.GeneratorPeriodic:
		return &periodic{clock: c, interval: cfg.Interval}
	default:
		return &none{}
	}
}

// none never originates.
type none struct{ seq }

func (n *none) ShouldOriginate() bool { return false }

// greedy always originates, as fast as the node's tick loop allows.
type greedy struct{ seq }

func (g *greedy) ShouldOriginate() bool { return true }

// poisson originates at most rate packets/sec, using a token bucket of
// burst 1 refilled continuously at rate. When polled often, it fires at
// a steady 1/rate spacing; inter-arrival times are not drawn from an
// exponential distribution.
type poisson struct {
	seq
	clock   clock.Clock
	rate    float64
	limiter *rate.Limiter
}

func (p *poisson) ShouldOriginate() bool {
	if p.limiter == nil {
		p.limiter = rate.NewLimiter(rate.Limit(p.rate), 1)
	}
	return p.limiter.AllowN(p.clock.Now(), 1)
}

// random originates at uniformly random intervals whose mean matches
// rate packets/sec.
type random struct {
	seq
	clock  clock.Clock
	rate   float64
	nextAt time.Time
	have   bool
}

func (r *random) ShouldOriginate() bool {
	now := r.clock.Now()
	if !r.have {
		r.scheduleNext(now)
	}
	if now.Before(r.nextAt) {
		return false
	}
	r.scheduleNext(now)
	return true
}

func (r *random) scheduleNext(from time.Time) {
	meanInterval := time.Duration(float64(time.Second) / r.rate)
	jitter := rand.Float64() * 2 * float64(meanInterval)
	r.nextAt = from.Add(time.Duration(jitter))
	r.have = true
}

// periodic originates exactly every interval.
type periodic struct {
	seq
	clock    clock.Clock
	interval time.Duration
	lastAt   time.Time
	have     bool
}

func (p *periodic) ShouldOriginate() bool {
	now := p.clock.Now()
	if !p.have {
		p.lastAt = now
		p.have = true
		return true
	}
	if now.Sub(p.lastAt) >= p.interval {
		p.lastAt = now
		return true
	}
	return false
}
