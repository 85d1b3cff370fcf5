package adapter

import (
	"multirat/middle_mile_scheduling/ant_colony/algorithm"
	"multirat/middle_mile_scheduling/common"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

// RegisterDefaults registers every available calculator in registry.
// agentPool is handed to the ant colony for parallel walks and may be nil.
func RegisterDefaults(registry *common.AlgorithmRegistry, config algorithm.Config, agentPool *ants.Pool) error {
	antColony, err := NewAntColonyAdapter(config, agentPool)
	if err != nil {
		return err
	}
	if err := registry.Register(antColony); err != nil {
		return err
	}
	log.Debugf("Successfully registered %s adapter", AntColonyName)

	if err := registry.Register(NewShortestPathAdapter()); err != nil {
		return err
	}
	log.Debugf("Successfully registered %s adapter", ShortestPathName)

	log.Infof("Available routing algorithms: %v", registry.List())
	return nil
}
