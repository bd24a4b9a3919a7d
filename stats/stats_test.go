package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	m := New("A")
	m.NativesSent.Inc()
	m.NativesSent.Inc()
	if got := testutil.ToFloat64(m.NativesSent); got != 2 {
		t.Fatalf("expected NativesSent=2, got %v", got)
	}
}

func TestIsolatedRegistriesDoNotCollide(t *testing.T) {
	// Two Metrics instances register collectors with the same name; since
	// each uses its own registry this must not panic.
	a := New("A")
	b := New("B")
	a.EncodedSent.Inc()
	b.EncodedSent.Inc()
	b.EncodedSent.Inc()
	if got := testutil.ToFloat64(a.EncodedSent); got != 1 {
		t.Fatalf("expected a.EncodedSent=1, got %v", got)
	}
	if got := testutil.ToFloat64(b.EncodedSent); got != 2 {
		t.Fatalf("expected b.EncodedSent=2, got %v", got)
	}
}

func TestKnowledgeBaseGaugeByNeighbour(t *testing.T) {
	m := New("R")
	m.KnowledgeBase.WithLabelValues("A").Set(3)
	m.KnowledgeBase.WithLabelValues("B").Set(5)
	if got := testutil.ToFloat64(m.KnowledgeBase.WithLabelValues("A")); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.KnowledgeBase.WithLabelValues("B")); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}
