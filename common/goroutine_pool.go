package common

import (
	"fmt"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	log "github.com/sirupsen/logrus"
)

type PoolConfig struct {
	MaxWorkers int // <= 0 means DefaultWorkers()
}

func NewPool(config PoolConfig) (*ants.Pool, error) {
	workers := config.MaxWorkers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants goroutine_pool: %w", err)
	}
	log.Debugf("NewPool: %d workers", workers)
	return pool, nil
}

// DefaultWorkers returns the number of logical CPUs
func DefaultWorkers() int {
	count, err := cpu.Counts(true)
	if err != nil || count <= 0 {
		log.Warningf("failed to count logical CPUs (%v), using runtime.NumCPU", err)
		return runtime.NumCPU()
	}
	return count
}
