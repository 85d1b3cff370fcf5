package link_state

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"
)

const reportFields = 9

var (
	ErrMalformedReport = errors.New("link state: malformed report")
	ErrInvalidDataRate = errors.New("link state: invalid datarate")
)

// Report is one status line: Source heard Destination on Channel.
// IP is the address Source uses to reach Destination.
type Report struct {
	Source      string
	Destination string
	IP          string
	LastSeen    float64
	Jumps       int
	ReportedAt  int
	Reliability float64
	DataRate    float64 // Mbps
	Channel     string
	Line        int
}

type reportKey struct {
	source, destination, channel string
}

func (r Report) key() reportKey {
	return reportKey{r.Source, r.Destination, r.Channel}
}

// ParseReports reads comma separated status lines:
// src,dst,ip,lastSeen,jumps,reportedAt,reliability,datarate,channel
// A line that does not parse only loses its own report: it is logged, counted
// in malformed and skipped. err is reserved for read failures.
func ParseReports(r io.Reader) (reports []Report, malformed int, err error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		report, err := parseReport(line)
		if err != nil {
			malformed++
			log.Warnf("ParseReports: skipping line %d: %v", lineNo, err)
			continue
		}
		report.Line = lineNo
		reports = append(reports, report)
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed, fmt.Errorf("failed to read status reports: %w", err)
	}

	return reports, malformed, nil
}

// ReadReports parses the status file at path
func ReadReports(path string) ([]Report, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open status file: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return ParseReports(f)
}

func parseReport(line string) (Report, error) {
	fields := strings.Split(line, ",")
	if len(fields) < reportFields {
		return Report{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedReport, reportFields, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	var (
		report = Report{
			Source:      fields[0],
			Destination: fields[1],
			IP:          fields[2],
			Channel:     fields[8],
		}
		err error
	)
	if report.Source == "" || report.Destination == "" {
		return Report{}, fmt.Errorf("%w: empty node id", ErrMalformedReport)
	}
	if report.LastSeen, err = parseFinite(fields[3]); err != nil {
		return Report{}, fmt.Errorf("%w: lastseen %q", ErrMalformedReport, fields[3])
	}
	if report.Jumps, err = strconv.Atoi(fields[4]); err != nil {
		return Report{}, fmt.Errorf("%w: jumps %q", ErrMalformedReport, fields[4])
	}
	if report.ReportedAt, err = strconv.Atoi(fields[5]); err != nil {
		return Report{}, fmt.Errorf("%w: delivery time %q", ErrMalformedReport, fields[5])
	}
	if report.Reliability, err = parseFinite(fields[6]); err != nil {
		return Report{}, fmt.Errorf("%w: reliability %q", ErrMalformedReport, fields[6])
	}
	if report.DataRate, err = ParseDataRate(fields[7]); err != nil {
		return Report{}, err
	}

	return report, nil
}

// parseFinite is strconv.ParseFloat without NaN and infinities
func parseFinite(field string) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", field)
	}
	return v, nil
}

// ParseDataRate accepts a bare number of Mbps or a rate token such as
// OfdmRate6Mbps, ErpOfdmRate54Mbps or DsssRate5_5Mbps. Kbps and Gbps tokens are scaled to Mbps.
func ParseDataRate(token string) (float64, error) {
	if v, err := strconv.ParseFloat(token, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDataRate, token)
		}
		return v, nil
	}

	scale := 1.0
	body := token
	switch {
	case strings.HasSuffix(body, "Kbps"):
		scale, body = 0.001, strings.TrimSuffix(body, "Kbps")
	case strings.HasSuffix(body, "Mbps"):
		body = strings.TrimSuffix(body, "Mbps")
	case strings.HasSuffix(body, "Gbps"):
		scale, body = 1000, strings.TrimSuffix(body, "Gbps")
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDataRate, token)
	}

	// the number is the trailing run of digits, '.' or '_' (5_5 reads as 5.5)
	start := len(body)
	for start > 0 {
		c := rune(body[start-1])
		if !unicode.IsDigit(c) && c != '.' && c != '_' {
			break
		}
		start--
	}
	number := strings.ReplaceAll(body[start:], "_", ".")
	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDataRate, token)
	}
	return v * scale, nil
}
