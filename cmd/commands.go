package main

import (
	"fmt"
	"io"

	"multirat/common"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	algorithm   string
	seed        int64
	snapshotDir string

	config    *common.RouteGenConfig
	logCloser io.Closer // rotated log file opened by setup

	rootCmd = &cobra.Command{
		Use:   "routegen <status-file> <routes-file>",
		Short: "Compute next-hop routing tables for a multi-radio mesh",
		Long: `routegen reads a status file of per-channel link reports, builds the
link graph and writes, for every node, the first hop toward every destination
it can reach.`,
		Args:              cobra.ExactArgs(2),
		PersistentPreRunE: setup,
		RunE:              runGenerate,
		SilenceUsage:      true,
	}

	tableCmd = &cobra.Command{
		Use:   "table <status-file> <destination>",
		Short: "Print the routing table toward one destination",
		Args:  cobra.ExactArgs(2),
		RunE:  runTable,
	}

	algorithmsCmd = &cobra.Command{
		Use:   "algorithms",
		Short: "List the available routing algorithms",
		Args:  cobra.NoArgs,
		RunE:  runAlgorithms,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", common.DefaultConfigFile, "path to the TOML configuration")
	rootCmd.PersistentFlags().StringVar(&algorithm, "algorithm", "", "routing algorithm, overrides [routing].algorithm")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed, overrides [ant_colony].seed")
	rootCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "directory for the JSON run snapshot, overrides [routing].snapshot_dir")

	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(algorithmsCmd)
}

// setup loads the configuration, applies flag overrides and starts logging
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("algorithm") {
		loaded.Routing.Algorithm = algorithm
	}
	if cmd.Flags().Changed("seed") {
		loaded.AntColony.Seed = seed
	}
	if f := cmd.Flags().Lookup("snapshot-dir"); f != nil && f.Changed {
		loaded.Routing.SnapshotDir = snapshotDir
	}

	closer, err := common.InitLogging(loaded.Log)
	if err != nil {
		return fmt.Errorf("logging setup failed: %w", err)
	}
	closeLog()
	logCloser = closer
	config = loaded
	return nil
}

// closeLog releases the log file opened by setup, if any
func closeLog() {
	if logCloser == nil {
		return
	}
	_ = logCloser.Close()
	logCloser = nil
}
