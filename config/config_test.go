package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Joku1806/COPE/packet"
)

const sampleYAML = `
version: 1
relay: R
nodes:
  - id: R
    rx_whitelist: [A, B]
    tx_whitelist: [A, B]
    traffic:
      type: none
  - id: A
    rx_whitelist: [R]
    tx_whitelist: [B]
    traffic:
      type: poisson
      rate: 2.5
  - id: B
    rx_whitelist: [R]
    tx_whitelist: [A]
    traffic:
      type: periodic
      interval: 500ms
timing:
  round_trip_time: 100ms
  control_packet_duration: 20ms
  packet_pool_size: 16
  max_retrans_amount: 3
  simulator_packet_loss: 0.1
  use_coding: true
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cope.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write sample config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay != packet.NodeID('R') {
		t.Fatalf("expected relay R, got %s", cfg.Relay)
	}
	if len(cfg.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(cfg.Nodes))
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/cope.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsUnknownRelay(t *testing.T) {
	cfg := &Config{
		Relay: 'Z',
		Nodes: []NodeConfig{{ID: 'A', Traffic: TrafficConfig{Type: GeneratorNone}}},
		Timing: TimingConfig{
			RoundTripTime:         1, ControlPacketDuration: 1,
			PacketPoolSize: 1, MaxRetransAmount: 1,
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for relay not among nodes")
	}
}

func TestValidateRejectsUnknownWhitelistPeer(t *testing.T) {
	cfg := &Config{
		Relay: 'A',
		Nodes: []NodeConfig{{ID: 'A', RxWhitelist: []packet.NodeID{'Z'}, Traffic: TrafficConfig{Type: GeneratorNone}}},
		Timing: TimingConfig{
			RoundTripTime:         1, ControlPacketDuration: 1,
			PacketPoolSize: 1, MaxRetransAmount: 1,
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown whitelist peer")
	}
}

func TestValidateRejectsZeroRate(t *testing.T) {
	cfg := &Config{
		Relay: 'A',
		Nodes: []NodeConfig{{ID: 'A', Traffic: TrafficConfig{Type: GeneratorPoisson, Rate: 0}}},
		Timing: TimingConfig{
			RoundTripTime: 1, ControlPacketDuration: 1,
			PacketPoolSize: 1, MaxRetransAmount: 1,
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero-rate poisson generator")
	}
}
