package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"multirat/common"
	"multirat/metrics_processing/link_state"
	"multirat/metrics_processing/publisher"
	"multirat/metrics_processing/storage"
	"multirat/middle_mile_scheduling/adapter"
	msc "multirat/middle_mile_scheduling/common"
	"multirat/routing"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const publishTimeout = 30 * time.Second

func main() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// newRegistry registers every calculator; release frees the agent pool
func newRegistry(cfg *common.RouteGenConfig) (registry *msc.AlgorithmRegistry, release func(), err error) {
	var agentPool *ants.Pool
	release = func() {}
	if cfg.AntColony.ParallelAgents {
		agentPool, err = common.NewPool(common.PoolConfig{MaxWorkers: cfg.Routing.AgentWorkers})
		if err != nil {
			return nil, nil, err
		}
		release = agentPool.Release
	}

	registry = msc.NewAlgorithmRegistry()
	if err := adapter.RegisterDefaults(registry, cfg.AntColony, agentPool); err != nil {
		release()
		return nil, nil, err
	}
	return registry, release, nil
}

// generate computes every destination's table from statusFile and writes routesFile.
// The snapshot and etcd publication follow the configuration.
func generate(ctx context.Context, cfg *common.RouteGenConfig, statusFile, routesFile string) (*storage.Snapshot, error) {
	g, stats, err := link_state.LoadGraph(statusFile)
	if err != nil {
		return nil, err
	}

	registry, release, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	defer release()

	calculator, err := registry.Get(cfg.Routing.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, registry.List())
	}

	destinationPool, err := common.NewPool(common.PoolConfig{MaxWorkers: cfg.Routing.DestinationWorkers})
	if err != nil {
		return nil, err
	}
	defer destinationPool.Release()

	start := time.Now()
	set, err := routing.NewRouteManager(calculator, destinationPool).ComputeAll(ctx, g)
	if err != nil {
		return nil, err
	}
	log.Infof("generate: %s finished in %v", calculator.Name(), time.Since(start))

	if err := storage.WriteRoutes(routesFile, set); err != nil {
		return nil, err
	}

	snapshot := storage.NewSnapshot(set)
	snapshot.StatusFile = statusFile
	snapshot.Nodes = stats.Nodes
	snapshot.Links = stats.Links
	snapshot.DroppedLinks = stats.DroppedLinks
	snapshot.MalformedReports = stats.MalformedReports

	if cfg.Routing.SnapshotDir != "" {
		store, err := storage.NewRouteStore(cfg.Routing.SnapshotDir)
		if err != nil {
			return nil, err
		}
		store.Track(snapshot)
		if err := store.Save(snapshot); err != nil {
			return nil, err
		}
	}

	if cfg.Etcd.Enabled {
		if err := publish(ctx, cfg.Etcd, snapshot); err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}

func publish(ctx context.Context, cfg common.EtcdConfig, snapshot *storage.Snapshot) error {
	p, err := publisher.NewEtcdPublisher(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.Publish(ctx, snapshot)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshot, err := generate(ctx, config, args[0], args[1])
	if err != nil {
		log.Errorf("route generation failed, err:%v", err)
		return err
	}
	log.Infof("routes written to %s, run %s", args[1], snapshot.RunID)
	return nil
}

func runTable(cmd *cobra.Command, args []string) error {
	g, _, err := link_state.LoadGraph(args[0])
	if err != nil {
		return err
	}

	registry, release, err := newRegistry(config)
	if err != nil {
		return err
	}
	defer release()

	calculator, err := registry.Get(config.Routing.Algorithm)
	if err != nil {
		return err
	}

	table, err := routing.NewRouteManager(calculator, nil).ComputeDestination(g, args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, src := range table.Sources() {
		fmt.Fprintf(out, "%s %s\n", src, table[src])
	}
	return nil
}

func runAlgorithms(cmd *cobra.Command, args []string) error {
	registry, release, err := newRegistry(config)
	if err != nil {
		return err
	}
	defer release()

	for _, name := range registry.List() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
