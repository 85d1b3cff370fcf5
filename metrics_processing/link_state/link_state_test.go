package link_state

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"multirat/middle_mile_scheduling/ant_colony/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusFile = `0,1,10.0.0.1,0.5,1,12,0.9,OfdmRate6Mbps,wifi
1,0,10.0.0.0,0.4,1,10,0.8,OfdmRate54Mbps,wifi

1,2,10.0.1.2,1.5,2,20,1.0,OfdmRate12Mbps,lte
2,1,10.0.1.1,1.0,2,21,0.7,24,lte
2,3,10.0.2.3,0.1,1,5,0.6,OfdmRate6Mbps,wifi
`

func TestParseDataRate(t *testing.T) {
	testCases := []struct {
		token    string
		expected float64
	}{
		{"6", 6},
		{"5.5", 5.5},
		{"OfdmRate6Mbps", 6},
		{"OfdmRate54Mbps", 54},
		{"ErpOfdmRate24Mbps", 24},
		{"DsssRate5_5Mbps", 5.5},
		{"Rate500Kbps", 0.5},
		{"Rate1Gbps", 1000},
	}
	for _, tc := range testCases {
		t.Run(tc.token, func(t *testing.T) {
			v, err := ParseDataRate(tc.token)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, v, 1e-12)
		})
	}

	for _, token := range []string{"", "fast", "OfdmRateMbps", "OfdmRate6"} {
		_, err := ParseDataRate(token)
		assert.ErrorIs(t, err, ErrInvalidDataRate, "token %q", token)
	}
}

func TestParseReports(t *testing.T) {
	reports, malformed, err := ParseReports(strings.NewReader(statusFile))
	require.NoError(t, err)
	assert.Equal(t, 0, malformed)
	require.Len(t, reports, 5)

	assert.Equal(t, Report{
		Source:      "0",
		Destination: "1",
		IP:          "10.0.0.1",
		LastSeen:    0.5,
		Jumps:       1,
		ReportedAt:  12,
		Reliability: 0.9,
		DataRate:    6,
		Channel:     "wifi",
		Line:        1,
	}, reports[0])
	assert.Equal(t, 4, reports[2].Line)
	assert.Equal(t, 24.0, reports[3].DataRate)
}

func TestParseReportMalformed(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  error
	}{
		{"too few fields", "0,1,10.0.0.1,0.5,1,12,0.9,6", ErrMalformedReport},
		{"bad jumps", "0,1,10.0.0.1,0.5,one,12,0.9,6,wifi", ErrMalformedReport},
		{"bad reliability", "0,1,10.0.0.1,0.5,1,12,high,6,wifi", ErrMalformedReport},
		{"nan reliability", "0,1,10.0.0.1,0.5,1,12,NaN,6,wifi", ErrMalformedReport},
		{"inf last seen", "0,1,10.0.0.1,Inf,1,12,0.9,6,wifi", ErrMalformedReport},
		{"bad datarate", "0,1,10.0.0.1,0.5,1,12,0.9,quick,wifi", ErrInvalidDataRate},
		{"nan datarate", "0,1,10.0.0.1,0.5,1,12,0.9,NaN,wifi", ErrInvalidDataRate},
		{"inf datarate", "0,1,10.0.0.1,0.5,1,12,0.9,Inf,wifi", ErrInvalidDataRate},
		{"empty node", ",1,10.0.0.1,0.5,1,12,0.9,6,wifi", ErrMalformedReport},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseReport(tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseReportsSkipsMalformedLines(t *testing.T) {
	input := `1,2,10.0.2.1,0.1,1,5,0.9,OfdmRate6Mbps,wifi
2,1,10.0.1.2,0.1,1,5,0.9,OfdmRate6Mbps,wifi
1,3,10.0.3.1,0.1,1,5,0.9,OfdmRateXMbps,wifi
3,1,10.0.1.3,0.1,1,5,NaN,OfdmRate6Mbps,wifi
1,3,10.0.3.1,0.1,1,5
`
	reports, malformed, err := ParseReports(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, malformed)
	require.Len(t, reports, 2)
	assert.Equal(t, 2, reports[1].Line)

	g, stats := BuildGraph(reports)
	assert.Equal(t, 2, stats.Links)
	assert.Equal(t, 0, stats.InvalidLinks)
	assert.False(t, g.HasNode("3"))

	cost, ok := g.Cost("2", "1", 0)
	require.True(t, ok)
	assert.GreaterOrEqual(t, cost, graph.BaseCost)
}

func TestBuildGraphRejectsNonFiniteMetrics(t *testing.T) {
	reports := []Report{
		{Source: "1", Destination: "2", IP: "a", Jumps: 1, Reliability: math.NaN(), DataRate: 6, Channel: "wifi"},
		{Source: "2", Destination: "1", IP: "b", Jumps: 1, Reliability: 0.9, DataRate: math.Inf(1), Channel: "wifi"},
	}

	g, stats := BuildGraph(reports)
	assert.Equal(t, 2, stats.InvalidLinks)
	assert.Equal(t, 0, stats.Links)
	assert.Equal(t, 0, g.LinkCount())
}

func TestBuildGraph(t *testing.T) {
	reports, _, err := ParseReports(strings.NewReader(statusFile))
	require.NoError(t, err)

	g, stats := BuildGraph(reports)
	assert.Equal(t, BuildStats{Reports: 5, Nodes: 4, Links: 4, DroppedLinks: 1}, stats)
	assert.Equal(t, []string{"0", "1", "2", "3"}, g.Nodes())

	// report 0->1 yields 1->0 with 1's ip and 0's metrics
	l, ok := g.Link("1", "0", 0)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.0", l.IP)
	assert.Equal(t, 6.0, l.DataRate)
	assert.Equal(t, 0.9, l.Reliability)
	assert.Equal(t, 12, l.ReportedAt)

	l, ok = g.Link("0", "1", 0)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", l.IP)
	assert.Equal(t, 54.0, l.DataRate)

	l, ok = g.Link("2", "1", 0)
	require.True(t, ok)
	assert.Equal(t, "10.0.1.1", l.IP)
	assert.Equal(t, 2, l.Jumps)

	// 2->3 has no 3->2 answer
	assert.True(t, g.HasNode("3"))
	assert.Equal(t, 0, g.ParallelCount("3", "2"))
	assert.Equal(t, 0, g.ParallelCount("2", "3"))
}

func TestBuildGraphChannelsAreParallelLinks(t *testing.T) {
	input := `0,1,a1,0,1,1,1.0,OfdmRate6Mbps,wifi
1,0,b1,0,1,1,1.0,OfdmRate6Mbps,wifi
0,1,a2,0,1,1,1.0,OfdmRate54Mbps,lte
1,0,b2,0,1,1,1.0,OfdmRate54Mbps,lte
1,0,b3,0,1,1,1.0,OfdmRate54Mbps,nr
`
	reports, _, err := ParseReports(strings.NewReader(input))
	require.NoError(t, err)

	g, stats := BuildGraph(reports)
	assert.Equal(t, 4, stats.Links)
	assert.Equal(t, 1, stats.DroppedLinks)
	assert.Equal(t, 2, g.ParallelCount("1", "0"))
	assert.Equal(t, 2, g.ParallelCount("0", "1"))

	l, _ := g.Link("1", "0", 1)
	assert.Equal(t, "b2", l.IP)
}

func TestBuildGraphLaterReportWins(t *testing.T) {
	input := `0,1,old,0,1,1,1.0,6,wifi
1,0,b,0,1,1,1.0,6,wifi
0,1,new,0,3,1,1.0,6,wifi
`
	reports, _, err := ParseReports(strings.NewReader(input))
	require.NoError(t, err)

	g, stats := BuildGraph(reports)
	assert.Equal(t, 2, stats.Reports)
	assert.Equal(t, 1, g.ParallelCount("1", "0"))

	l, _ := g.Link("0", "1", 0)
	assert.Equal(t, "new", l.IP)
	l, _ = g.Link("1", "0", 0)
	assert.Equal(t, 3, l.Jumps)
}

func TestBuildGraphCountsInvalidLinks(t *testing.T) {
	input := `0,1,a,0,0,1,1.0,6,wifi
1,0,b,0,1,1,1.0,6,wifi
`
	reports, _, err := ParseReports(strings.NewReader(input))
	require.NoError(t, err)

	g, stats := BuildGraph(reports)
	assert.Equal(t, 1, stats.InvalidLinks)
	assert.Equal(t, 1, stats.Links)
	assert.Equal(t, 0, g.ParallelCount("1", "0"))
	assert.Equal(t, 1, g.ParallelCount("0", "1"))
}

func TestLoadGraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.csv")
	require.NoError(t, os.WriteFile(path, []byte(statusFile), 0644))

	g, stats, err := LoadGraph(path)
	require.NoError(t, err)
	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 4, stats.Links)
	assert.Equal(t, 0, stats.MalformedReports)

	noisy := filepath.Join(dir, "noisy.csv")
	require.NoError(t, os.WriteFile(noisy, []byte(statusFile+"4,0,x,0,1,1,1.0,OfdmRateXMbps,wifi\n"), 0644))
	g, stats, err = LoadGraph(noisy)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MalformedReports)
	assert.Equal(t, 4, stats.Links)
	assert.False(t, g.HasNode("4"))

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	g, _, err = LoadGraph(empty)
	require.NoError(t, err)
	assert.Equal(t, 0, g.NodeCount())

	_, _, err = LoadGraph(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
