package traffic

import (
	"testing"
	"time"

	"github.com/Joku1806/COPE/clock"
	"github.com/Joku1806/COPE/config"
)

func TestNoneNeverOriginates(t *testing.T) {
	g := New(config.TrafficConfig{Type: config.GeneratorNone}, nil)
	for i := 0; i < 10; i++ {
		if g.ShouldOriginate() {
			t.Fatal("none generator should never originate")
		}
	}
}

func TestGreedyAlwaysOriginates(t *testing.T) {
	g := New(config.TrafficConfig{Type: config.GeneratorGreedy}, nil)
	for i := 0; i < 10; i++ {
		if !g.ShouldOriginate() {
			t.Fatal("greedy generator should always originate")
		}
	}
}

func TestPeriodicFiresAtInterval(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	g := New(config.TrafficConfig{Type: config.GeneratorPeriodic, Interval: time.Second}, fc)

	if !g.ShouldOriginate() {
		t.Fatal("expected first call to originate")
	}
	if g.ShouldOriginate() {
		t.Fatal("should not originate again before interval elapses")
	}
	fc.Advance(time.Second)
	if !g.ShouldOriginate() {
		t.Fatal("expected originate once interval has elapsed")
	}
}

func TestPoissonRespectsRateAsUpperBound(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	g := New(config.TrafficConfig{Type: config.GeneratorPoisson, Rate: 1}, fc)

	fired := 0
	for i := 0; i < 5; i++ {
		if g.ShouldOriginate() {
			fired++
		}
	}
	if fired > 1 {
		t.Fatalf("at t=0 with rate=1/s and burst=1, expected at most 1 origination, got %d", fired)
	}

	fc.Advance(10 * time.Second)
	if !g.ShouldOriginate() {
		t.Fatal("expected an origination to be available after 10s at rate=1/s")
	}
}
