package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"multirat/routing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const snapshotFileName = "routes.json"

// Snapshot records one route generation run
type Snapshot struct {
	RunID            string                          `json:"run_id"`
	PreviousRunID    string                          `json:"previous_run_id,omitempty"`
	Algorithm        string                          `json:"algorithm"`
	CreatedAt        time.Time                       `json:"created_at"`
	StatusFile       string                          `json:"status_file,omitempty"`
	Nodes            int                             `json:"nodes"`
	Links            int                             `json:"links"`
	DroppedLinks     int                             `json:"dropped_links"`
	MalformedReports int                             `json:"malformed_reports"`
	Destinations     []string                        `json:"destinations"`
	Failed           []string                        `json:"failed,omitempty"`
	RoutesHash       string                          `json:"routes_hash"`
	Routes           map[string][]routing.RouteEntry `json:"routes"`
}

// NewSnapshot wraps set with a fresh run id
func NewSnapshot(set *routing.RouteSet) *Snapshot {
	return &Snapshot{
		RunID:        uuid.NewString(),
		Algorithm:    set.Algorithm,
		CreatedAt:    time.Now(),
		Destinations: set.Destinations,
		Failed:       set.Failed,
		RoutesHash:   RoutesHash(set.Routes),
		Routes:       set.Routes,
	}
}

// RoutesHash is the MD5 of every source's route line in source order.
// Runs that produce the same routes hash the same regardless of run id or time.
func RoutesHash(routes map[string][]routing.RouteEntry) string {
	sources := make([]string, 0, len(routes))
	for src := range routes {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var all strings.Builder
	for _, src := range sources {
		all.WriteString(src + "=" + FormatRouteLine(routes[src]) + "\n")
	}
	return CalculateMD5([]byte(all.String()))
}

// RouteStore keeps the latest snapshot in dataDir/routes.json
type RouteStore struct {
	dataDir      string
	snapshotFile string
	snapshotHash string
	snapshot     *Snapshot
	lock         sync.RWMutex
}

func NewRouteStore(dataDir string) (*RouteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	store := &RouteStore{
		dataDir:      dataDir,
		snapshotFile: filepath.Join(dataDir, snapshotFileName),
	}
	store.loadFile()
	return store, nil
}

func (rs *RouteStore) loadFile() {
	rs.lock.Lock()
	defer rs.lock.Unlock()

	data, err := os.ReadFile(rs.snapshotFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warningf("error reading snapshot file (%s): %v", rs.snapshotFile, err)
		}
		return
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.Warningf("error unmarshalling snapshot file (%s): %v", rs.snapshotFile, err)
		return
	}
	rs.snapshot = &snapshot
	rs.snapshotHash = CalculateMD5(data)
	log.Infof("successfully loaded. File: %v, run: %s", rs.snapshotFile, snapshot.RunID)
}

// Save replaces the stored snapshot
func (rs *RouteStore) Save(snapshot *Snapshot) error {
	rs.lock.Lock()
	defer rs.lock.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(rs.snapshotFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}

	rs.snapshot = snapshot
	rs.snapshotHash = CalculateMD5(data)
	log.Infof("Save: snapshot %s written to %s, hash: %s", snapshot.RunID, rs.snapshotFile, rs.snapshotHash)
	return nil
}

// Latest returns the last saved or loaded snapshot, nil if there is none
func (rs *RouteStore) Latest() *Snapshot {
	rs.lock.RLock()
	defer rs.lock.RUnlock()
	return rs.snapshot
}

func (rs *RouteStore) Hash() string {
	rs.lock.RLock()
	defer rs.lock.RUnlock()
	return rs.snapshotHash
}

func (rs *RouteStore) Path() string { return rs.snapshotFile }

// Track links snapshot to the stored one and reports whether its routes differ.
// A run with no predecessor counts as changed.
func (rs *RouteStore) Track(snapshot *Snapshot) bool {
	if changed, err := rs.Changed(); err != nil {
		log.Warningf("Track: failed to hash %s: %v", rs.snapshotFile, err)
	} else if changed {
		log.Warningf("Track: %s was modified since it was loaded", rs.snapshotFile)
	}

	previous := rs.Latest()
	if previous == nil {
		log.Infof("Track: no previous snapshot in %s", rs.dataDir)
		return true
	}

	snapshot.PreviousRunID = previous.RunID
	if previous.RoutesHash == snapshot.RoutesHash {
		log.Infof("Track: routes unchanged since run %s (hash %s)", previous.RunID, snapshot.RoutesHash)
		return false
	}
	log.Infof("Track: routes changed since run %s", previous.RunID)
	return true
}

// Changed reports whether the file on disk no longer matches the last known hash
func (rs *RouteStore) Changed() (bool, error) {
	hash, err := CalculateFileMD5(rs.snapshotFile)
	if err != nil {
		return false, err
	}
	return hash != rs.Hash(), nil
}
