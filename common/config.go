package common

import (
	"errors"
	"fmt"
	"os"
	"time"

	"multirat/middle_mile_scheduling/ant_colony/algorithm"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultConfigFile = "routegen_config.toml"
	DefaultAlgorithm  = "ant_colony"
)

// RouteGenConfig struct to hold configuration from toml file
type RouteGenConfig struct {
	Log       LogConfig        `toml:"log"`
	AntColony algorithm.Config `toml:"ant_colony"`
	Routing   RoutingConfig    `toml:"routing"`
	Etcd      EtcdConfig       `toml:"etcd"`
}

type LogConfig struct {
	Dir        string `toml:"dir"`
	File       string `toml:"file"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type RoutingConfig struct {
	Algorithm          string `toml:"algorithm"`
	DestinationWorkers int    `toml:"destination_workers"` // 0 means one per logical CPU
	AgentWorkers       int    `toml:"agent_workers"`       // 0 means one per logical CPU
	SnapshotDir        string `toml:"snapshot_dir"`        // empty disables snapshots
}

type EtcdConfig struct {
	Enabled            bool     `toml:"enabled"`
	Endpoints          []string `toml:"endpoints"`
	DialTimeoutSeconds int      `toml:"dial_timeout_seconds"`
	Prefix             string   `toml:"prefix"`
}

func (c EtcdConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSeconds) * time.Second
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() RouteGenConfig {
	return RouteGenConfig{
		Log: LogConfig{
			Dir:        "./logs",
			File:       "routegen.log",
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 30,
			Compress:   true,
		},
		AntColony: algorithm.DefaultConfig(),
		Routing: RoutingConfig{
			Algorithm: DefaultAlgorithm,
		},
		Etcd: EtcdConfig{
			Endpoints:          []string{"localhost:2379"},
			DialTimeoutSeconds: 5,
			Prefix:             "/multirat/",
		},
	}
}

// LoadConfig decodes path over the defaults, so keys missing from the file keep their default.
// A missing file is not an error.
func LoadConfig(path string) (*RouteGenConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Warningf("config file %s not found, using defaults", path)
	} else if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	if config.Routing.Algorithm == "" {
		log.Warningf("routing algorithm missing from config, using %s", DefaultAlgorithm)
		config.Routing.Algorithm = DefaultAlgorithm
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if err := config.AntColony.Validate(); err != nil {
		return nil, fmt.Errorf("invalid [ant_colony] section in %s: %w", path, err)
	}
	if config.Etcd.Enabled && len(config.Etcd.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd enabled in %s without endpoints", path)
	}

	return &config, nil
}
