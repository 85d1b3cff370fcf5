package link_state

import (
	"multirat/middle_mile_scheduling/ant_colony/graph"

	log "github.com/sirupsen/logrus"
)

// BuildStats describes how reports turned into links
type BuildStats struct {
	Reports          int // distinct (source, destination, channel) reports
	MalformedReports int // status lines that did not parse
	Nodes            int
	Links            int
	DroppedLinks     int // reports without a reverse report on the same channel
	InvalidLinks     int // reports whose metrics the graph rejects
}

// BuildGraph turns reports into a routing graph.
// A report A->B on a channel becomes the link B->A when B also reported A on that channel:
// the link's IP comes from B's report and its metrics from A's. A later report for the same
// (source, destination, channel) replaces an earlier one. Every reported node is part of the graph.
func BuildGraph(reports []Report) (*graph.Graph, BuildStats) {
	order := make([]reportKey, 0, len(reports))
	latest := make(map[reportKey]Report, len(reports))
	for _, r := range reports {
		k := r.key()
		if _, exists := latest[k]; !exists {
			order = append(order, k)
		}
		latest[k] = r
	}

	g := graph.NewGraph()
	stats := BuildStats{Reports: len(order)}
	for _, k := range order {
		metrics := latest[k]
		g.AddNode(metrics.Source)
		g.AddNode(metrics.Destination)

		reverse, ok := latest[reportKey{metrics.Destination, metrics.Source, metrics.Channel}]
		if !ok {
			stats.DroppedLinks++
			log.Debugf("BuildGraph: no report %s->%s on channel %s, dropping link (line %d)",
				metrics.Destination, metrics.Source, metrics.Channel, metrics.Line)
			continue
		}

		_, err := g.AddLink(metrics.Destination, metrics.Source, graph.Link{
			IP:          reverse.IP,
			LastSeen:    metrics.LastSeen,
			Jumps:       metrics.Jumps,
			ReportedAt:  metrics.ReportedAt,
			Reliability: metrics.Reliability,
			DataRate:    metrics.DataRate,
		})
		if err != nil {
			stats.InvalidLinks++
			log.Warnf("BuildGraph: skipping link %s->%s on channel %s (line %d): %v",
				metrics.Destination, metrics.Source, metrics.Channel, metrics.Line, err)
			continue
		}
		stats.Links++
	}

	stats.Nodes = g.NodeCount()
	if stats.DroppedLinks > 0 {
		log.Warnf("BuildGraph: dropped %d of %d reports without a reverse report", stats.DroppedLinks, stats.Reports)
	}
	log.Infof("BuildGraph: nodes=%d, links=%d, dropped=%d, invalid=%d",
		stats.Nodes, stats.Links, stats.DroppedLinks, stats.InvalidLinks)
	return g, stats
}

// LoadGraph reads the status file at path and builds its graph
func LoadGraph(path string) (*graph.Graph, BuildStats, error) {
	reports, malformed, err := ReadReports(path)
	if err != nil {
		return nil, BuildStats{}, err
	}
	if malformed > 0 {
		log.Warnf("LoadGraph: skipped %d malformed lines in %s", malformed, path)
	}
	if len(reports) == 0 {
		log.Warnf("LoadGraph: status file %s has no reports", path)
	}

	g, stats := BuildGraph(reports)
	stats.MalformedReports = malformed
	return g, stats, nil
}
