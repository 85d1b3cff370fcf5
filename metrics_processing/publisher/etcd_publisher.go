package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"multirat/common"
	"multirat/metrics_processing/storage"

	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const DefaultPrefix = "/multirat/"

// RunSummary is stored under the run key once every route line is written
type RunSummary struct {
	RunID        string    `json:"run_id"`
	Algorithm    string    `json:"algorithm"`
	CreatedAt    time.Time `json:"created_at"`
	Sources      int       `json:"sources"`
	Destinations int       `json:"destinations"`
	Failed       []string  `json:"failed,omitempty"`
	RoutesHash   string    `json:"routes_hash"`
}

// EtcdPublisher puts each source's route line under <prefix>routes/<source>
// and a run summary under <prefix>runs/<run id>
type EtcdPublisher struct {
	client      *clientv3.Client
	kv          clientv3.KV
	prefix      string
	publisherID string
}

// NewEtcdPublisher connects with the [etcd] section of the configuration
func NewEtcdPublisher(config common.EtcdConfig) (*EtcdPublisher, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   config.Endpoints,
		DialTimeout: config.DialTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	p := newPublisher(client.KV, config.Prefix)
	p.client = client
	return p, nil
}

func newPublisher(kv clientv3.KV, prefix string) *EtcdPublisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &EtcdPublisher{
		kv:          kv,
		prefix:      prefix,
		publisherID: fmt.Sprintf("publisher-%d", time.Now().Unix()),
	}
}

func (p *EtcdPublisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

func (p *EtcdPublisher) RouteKey(source string) string {
	return p.prefix + "routes/" + source
}

func (p *EtcdPublisher) RunKey(runID string) string {
	return p.prefix + "runs/" + runID
}

// Publish writes the snapshot's route lines in source order, then its run summary
func (p *EtcdPublisher) Publish(ctx context.Context, snapshot *storage.Snapshot) error {
	sources := make([]string, 0, len(snapshot.Routes))
	for src := range snapshot.Routes {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		line := storage.FormatRouteLine(snapshot.Routes[src])
		if _, err := p.kv.Put(ctx, p.RouteKey(src), line); err != nil {
			return fmt.Errorf("failed to publish routes of %s: %w", src, err)
		}
	}

	summary := RunSummary{
		RunID:        snapshot.RunID,
		Algorithm:    snapshot.Algorithm,
		CreatedAt:    snapshot.CreatedAt,
		Sources:      len(sources),
		Destinations: len(snapshot.Destinations),
		Failed:       snapshot.Failed,
		RoutesHash:   storage.RoutesHash(snapshot.Routes),
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if _, err := p.kv.Put(ctx, p.RunKey(snapshot.RunID), string(summaryJSON)); err != nil {
		return fmt.Errorf("failed to publish run summary: %w", err)
	}

	log.Infof("[%s] Run published: %s (algorithm: %s, sources: %d)",
		p.publisherID, snapshot.RunID, snapshot.Algorithm, len(sources))
	return nil
}

// GetRunSummary reads back the summary of runID
func (p *EtcdPublisher) GetRunSummary(ctx context.Context, runID string) (*RunSummary, error) {
	resp, err := p.kv.Get(ctx, p.RunKey(runID))
	if err != nil {
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("no summary found for run: %s", runID)
	}

	var summary RunSummary
	if err := json.Unmarshal(resp.Kvs[0].Value, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &summary, nil
}
