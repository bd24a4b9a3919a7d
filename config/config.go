// Package config loads and validates the static YAML description of a
// COPE mesh: its nodes, whitelists, traffic generators, and timing
// parameters (spec.md §3, §4.7, §9). Grounded on shurlinet-shurli's
// internal/config loader shape (yaml.v3 unmarshal into a raw struct that
// carries duration fields as strings, then converted and defaulted into
// the real Config), generalized from shurlinet-shurli's peer/relay
// config since the teacher module carries no config package of its own.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Joku1806/COPE/packet"
)

// CurrentConfigVersion is the schema version this loader understands.
const CurrentConfigVersion = 1

// GeneratorType names the traffic generator a leaf node drives its
// originations with (spec.md §9's "traffic generator" external
// collaborator).
type GeneratorType string

const (
	// GeneratorNone originates nothing; the node only relays/acks.
	GeneratorNone GeneratorType = "none"
	// GeneratorGreedy originates as fast as the node's send loop allows.
	GeneratorGreedy GeneratorType = "greedy"
	// GeneratorPoisson originates at most Rate packets/sec through a
	// token bucket of burst 1; intervals are not exponentially drawn.
	GeneratorPoisson GeneratorType = "poisson"
	// GeneratorRandom originates at uniformly random intervals in
	// [0, 2/Rate) seconds, so Rate (packets/sec) is the mean rate.
	GeneratorRandom GeneratorType = "random"
	// GeneratorPeriodic originates exactly every Interval.
	GeneratorPeriodic GeneratorType = "periodic"
)

// TrafficConfig configures a single node's origination behaviour.
type TrafficConfig struct {
	Type     GeneratorType `yaml:"type"`
	Rate     float64       `yaml:"rate,omitempty"`     // packets/sec, Poisson and Random
	Interval time.Duration `yaml:"interval,omitempty"` // Periodic
}

// NodeConfig describes one node's identity and link whitelists.
type NodeConfig struct {
	ID          packet.NodeID   `yaml:"id"`
	RxWhitelist []packet.NodeID `yaml:"rx_whitelist"`
	TxWhitelist []packet.NodeID `yaml:"tx_whitelist"`
	Traffic     TrafficConfig   `yaml:"traffic"`
}

// TimingConfig holds the protocol's timing and resource-bound knobs
// (spec.md §4.3, §4.7, §8).
type TimingConfig struct {
	RoundTripTime         time.Duration `yaml:"round_trip_time"`
	ControlPacketDuration time.Duration `yaml:"control_packet_duration"`
	PacketPoolSize        int           `yaml:"packet_pool_size"`
	MaxRetransAmount      int           `yaml:"max_retrans_amount"`
	SimulatorPacketLoss   float64       `yaml:"simulator_packet_loss"`
	UseCoding             bool          `yaml:"use_coding"`
	StatsLogDuration      time.Duration `yaml:"stats_log_duration"`
}

// Config is the full, validated description of a mesh run.
type Config struct {
	Version int           `yaml:"version,omitempty"`
	Relay   packet.NodeID `yaml:"relay"`
	Nodes   []NodeConfig  `yaml:"nodes"`
	Timing  TimingConfig  `yaml:"timing"`
}

// rawConfig mirrors Config but carries duration and node-id fields as
// YAML-friendly strings/bytes before conversion, the way shurlinet-shurli's
// loader.go parses "reservation_interval" as a string and converts it
// after unmarshal.
type rawConfig struct {
	Version int    `yaml:"version,omitempty"`
	Relay   string `yaml:"relay"`
	Nodes   []struct {
		ID          string   `yaml:"id"`
		RxWhitelist []string `yaml:"rx_whitelist"`
		TxWhitelist []string `yaml:"tx_whitelist"`
		Traffic     struct {
			Type     string  `yaml:"type"`
			Rate     float64 `yaml:"rate,omitempty"`
			Interval string  `yaml:"interval,omitempty"`
		} `yaml:"traffic"`
	} `yaml:"nodes"`
	Timing struct {
		RoundTripTime         string  `yaml:"round_trip_time"`
		ControlPacketDuration string  `yaml:"control_packet_duration"`
		PacketPoolSize        int     `yaml:"packet_pool_size"`
		MaxRetransAmount      int     `yaml:"max_retrans_amount"`
		SimulatorPacketLoss   float64 `yaml:"simulator_packet_loss"`
		UseCoding             bool    `yaml:"use_coding"`
		StatsLogDuration      string  `yaml:"stats_log_duration"`
	} `yaml:"timing"`
}

func nodeID(s string) (packet.NodeID, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("node id %q must be a single character", s)
	}
	return packet.NodeID(s[0]), nil
}

func nodeIDs(ss []string) ([]packet.NodeID, error) {
	out := make([]packet.NodeID, 0, len(ss))
	for _, s := range ss {
		id, err := nodeID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Load reads and parses a Config from a YAML file at path. It does not
// validate cross-field invariants; call Validate afterward.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	version := raw.Version
	if version == 0 {
		version = CurrentConfigVersion
	}
	if version > CurrentConfigVersion {
		return nil, fmt.Errorf("config version %d is newer than supported version %d", version, CurrentConfigVersion)
	}

	relay, err := nodeID(raw.Relay)
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}

	rtt, err := time.ParseDuration(raw.Timing.RoundTripTime)
	if err != nil {
		return nil, fmt.Errorf("timing.round_trip_time: %w", err)
	}
	cpd, err := time.ParseDuration(raw.Timing.ControlPacketDuration)
	if err != nil {
		return nil, fmt.Errorf("timing.control_packet_duration: %w", err)
	}
	var statsDur time.Duration
	if raw.Timing.StatsLogDuration != "" {
		statsDur, err = time.ParseDuration(raw.Timing.StatsLogDuration)
		if err != nil {
			return nil, fmt.Errorf("timing.stats_log_duration: %w", err)
		}
	}

	nodes := make([]NodeConfig, 0, len(raw.Nodes))
	for _, rn := range raw.Nodes {
		id, err := nodeID(rn.ID)
		if err != nil {
			return nil, fmt.Errorf("nodes: %w", err)
		}
		rx, err := nodeIDs(rn.RxWhitelist)
		if err != nil {
			return nil, fmt.Errorf("node %s rx_whitelist: %w", id, err)
		}
		tx, err := nodeIDs(rn.TxWhitelist)
		if err != nil {
			return nil, fmt.Errorf("node %s tx_whitelist: %w", id, err)
		}
		var interval time.Duration
		if rn.Traffic.Interval != "" {
			interval, err = time.ParseDuration(rn.Traffic.Interval)
			if err != nil {
				return nil, fmt.Errorf("node %s traffic.interval: %w", id, err)
			}
		}
		nodes = append(nodes, NodeConfig{
			ID:          id,
			RxWhitelist: rx,
			TxWhitelist: tx,
			Traffic: TrafficConfig{
				Type:     GeneratorType(rn.Traffic.Type),
				Rate:     rn.Traffic.Rate,
				Interval: interval,
			},
		})
	}

	cfg := &Config{
		Version: version,
		Relay:   relay,
		Nodes:   nodes,
		Timing: TimingConfig{
			RoundTripTime:         rtt,
			ControlPacketDuration: cpd,
			PacketPoolSize:        raw.Timing.PacketPoolSize,
			MaxRetransAmount:      raw.Timing.MaxRetransAmount,
			SimulatorPacketLoss:   raw.Timing.SimulatorPacketLoss,
			UseCoding:             raw.Timing.UseCoding,
			StatsLogDuration:      statsDur,
		},
	}
	return cfg, nil
}

// Validate checks cross-field invariants Load cannot: that the relay is
// among the configured nodes, whitelists reference only known nodes, and
// timing/resource parameters are positive (spec.md §4.7, §9).
func (c *Config) Validate() error {
	known := make(map[packet.NodeID]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		known[n.ID] = true
	}
	if !known[c.Relay] {
		return fmt.Errorf("relay %s is not among the configured nodes", c.Relay)
	}
	for _, n := range c.Nodes {
		for _, peer := range n.RxWhitelist {
			if !known[peer] {
				return fmt.Errorf("node %s rx_whitelist references unknown node %s", n.ID, peer)
			}
		}
		for _, peer := range n.TxWhitelist {
			if !known[peer] {
				return fmt.Errorf("node %s tx_whitelist references unknown node %s", n.ID, peer)
			}
		}
		switch n.Traffic.Type {
		case GeneratorNone, GeneratorGreedy:
		case GeneratorPoisson, GeneratorRandom:
			if n.Traffic.Rate <= 0 {
				return fmt.Errorf("node %s traffic.rate must be positive for %s generator", n.ID, n.Traffic.Type)
			}
		case GeneratorPeriodic:
			if n.Traffic.Interval <= 0 {
				return fmt.Errorf("node %s traffic.interval must be positive for periodic generator", n.ID)
			}
		default:
			return fmt.Errorf("node %s has unknown traffic generator type %q", n.ID, n.Traffic.Type)
		}
	}
	if c.Timing.RoundTripTime <= 0 {
		return fmt.Errorf("timing.round_trip_time must be positive")
	}
	if c.Timing.ControlPacketDuration <= 0 {
		return fmt.Errorf("timing.control_packet_duration must be positive")
	}
	if c.Timing.PacketPoolSize <= 0 {
		return fmt.Errorf("timing.packet_pool_size must be positive")
	}
	if c.Timing.MaxRetransAmount <= 0 {
		return fmt.Errorf("timing.max_retrans_amount must be positive")
	}
	if c.Timing.SimulatorPacketLoss < 0 || c.Timing.SimulatorPacketLoss >= 1 {
		return fmt.Errorf("timing.simulator_packet_loss must be in [0, 1)")
	}
	return nil
}
