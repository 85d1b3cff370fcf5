package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"multirat/routing"

	log "github.com/sirupsen/logrus"
)

var ErrNonNumericNode = errors.New("storage: routes file needs non-negative integer node ids")

// FormatRouteLine joins entries as destination:ip tokens separated by commas
func FormatRouteLine(entries []routing.RouteEntry) string {
	tokens := make([]string, len(entries))
	for i, e := range entries {
		tokens[i] = e.Destination + ":" + e.IP
	}
	return strings.Join(tokens, ",")
}

// EncodeRoutes renders set so that line N holds the routes of source node N.
// Lines of ids without routes stay empty; the last line is the highest source with routes.
func EncodeRoutes(set *routing.RouteSet) ([]byte, error) {
	lines := make(map[int]string, len(set.Routes))
	maxIndex := -1
	for src, entries := range set.Routes {
		index, err := strconv.Atoi(src)
		if err != nil || index < 0 {
			return nil, fmt.Errorf("%w: %q", ErrNonNumericNode, src)
		}
		lines[index] = FormatRouteLine(entries)
		if index > maxIndex {
			maxIndex = index
		}
	}

	var buf bytes.Buffer
	for i := 0; i <= maxIndex; i++ {
		buf.WriteString(lines[i])
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// WriteRoutes writes set to path in the routes file layout
func WriteRoutes(path string, set *routing.RouteSet) error {
	data, err := EncodeRoutes(set)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write routes file: %w", err)
	}
	log.Infof("WriteRoutes: wrote %d sources to %s (md5 %s)", len(set.Routes), path, CalculateMD5(data))
	return nil
}
