// Command cope-sim runs an in-process COPE mesh simulator: one Node per
// configured mesh member, all sharing one simchannel.Medium, ticking
// until interrupted. Grounded on the teacher's cmd/tor-client/main.go
// (load config/state, build the long-running collaborators, start a
// signal-driven shutdown goroutine, run until told to stop).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/Joku1806/COPE/clock"
	"github.com/Joku1806/COPE/config"
	"github.com/Joku1806/COPE/node"
	"github.com/Joku1806/COPE/packet"
	"github.com/Joku1806/COPE/simchannel"
	"github.com/Joku1806/COPE/stats"
	"github.com/Joku1806/COPE/strategy"
	"github.com/Joku1806/COPE/topology"
	"github.com/Joku1806/COPE/traffic"

	"github.com/prometheus/client_golang/prometheus"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "cope-sim.yaml", "path to the mesh config YAML file")
	tickInterval := flag.Duration("tick", 10*time.Millisecond, "how often each node runs its receive/transmit cycle")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve each node's metrics at /metrics/<id> on this address (e.g. :9090)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	fmt.Printf("=== COPE mesh simulator %s ===\n", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	topo := buildTopology(cfg)
	medium := simchannel.New(topo, cfg.Timing.SimulatorPacketLoss)
	realClock := clock.Real{}

	nodes, metricsByID := buildNodes(cfg, topo, medium, realClock, logger)

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, metricsByID, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, n := range nodes {
		wg.Add(1)
		go func(n *node.Node) {
			defer wg.Done()
			n.Run(ctx, *tickInterval)
		}(n)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nShutting down...")
	cancel()
	medium.Close()
	wg.Wait()

	printFinalStats(metricsByID)
}

func buildTopology(cfg *config.Config) *topology.Topology {
	nodeIDs := make([]packet.NodeID, len(cfg.Nodes))
	rx := make(map[packet.NodeID][]packet.NodeID, len(cfg.Nodes))
	tx := make(map[packet.NodeID][]packet.NodeID, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		nodeIDs[i] = n.ID
		rx[n.ID] = n.RxWhitelist
		tx[n.ID] = n.TxWhitelist
	}
	return topology.New(cfg.Relay, nodeIDs, rx, tx)
}

func buildNodes(cfg *config.Config, topo *topology.Topology, medium *simchannel.Medium, c clock.Clock, logger *slog.Logger) ([]*node.Node, map[packet.NodeID]*stats.Metrics) {
	nodes := make([]*node.Node, 0, len(cfg.Nodes))
	metricsByID := make(map[packet.NodeID]*stats.Metrics, len(cfg.Nodes))

	for _, nc := range cfg.Nodes {
		metrics := stats.New(nc.ID.String())
		metricsByID[nc.ID] = metrics

		var strat strategy.Strategy
		if topo.IsRelay(nc.ID) {
			strat = strategy.NewRelayStrategy(nc.ID, nc.TxWhitelist, cfg.Timing.UseCoding, cfg.Timing.PacketPoolSize, cfg.Timing.RoundTripTime, cfg.Timing.MaxRetransAmount, cfg.Timing.ControlPacketDuration, c)
		} else {
			gen := traffic.New(nc.Traffic, c)
			strat = strategy.NewLeafStrategy(nc.ID, cfg.Relay, nc.TxWhitelist, cfg.Timing.PacketPoolSize, cfg.Timing.RoundTripTime, cfg.Timing.MaxRetransAmount, cfg.Timing.ControlPacketDuration, gen, c)
		}

		n := node.New(nc.ID, strat, medium.For(nc.ID), topo, metrics, c, logger.With("node", nc.ID.String()))
		nodes = append(nodes, n)
	}
	return nodes, metricsByID
}

func serveMetrics(addr string, metricsByID map[packet.NodeID]*stats.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	for id, m := range metricsByID {
		mux.Handle(fmt.Sprintf("/metrics/%s", id.String()), m.Handler())
	}
	logger.Info("serving per-node metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}

func printFinalStats(metricsByID map[packet.NodeID]*stats.Metrics) {
	fmt.Println("\nFinal stats:")
	for id, m := range metricsByID {
		fmt.Printf("  %s: natives sent=%.0f recv=%.0f, encoded sent=%.0f recv=%.0f, control sent=%.0f recv=%.0f, decode failures=%.0f\n",
			id.String(),
			valueOf(m.NativesSent), valueOf(m.NativesRecv),
			valueOf(m.EncodedSent), valueOf(m.EncodedRecv),
			valueOf(m.ControlSent), valueOf(m.ControlRecv),
			valueOf(m.DecodeFailures),
		)
	}
}

func valueOf(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
