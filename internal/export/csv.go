package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cortex-sentinel/internal/types"
)

// Header is the fixed column layout of exported telemetry.
var Header = []string{"Timestamp", "Source", "Activity", "ThreatLevel", "Patterns", "Confidence"}

// patternSeparator joins pattern labels inside one cell. None of the fixed
// labels contains a pipe, so the join is reversible.
const patternSeparator = "|"

// Write emits one CSV row per log entry.
func Write(w io.Writer, logs []types.LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, entry := range logs {
		record := []string{
			entry.Timestamp,
			entry.Source,
			entry.Activity,
			string(entry.ThreatLevel),
			strings.Join(entry.Details.DetectedPatterns, patternSeparator),
			strconv.Itoa(entry.Details.ConfidenceScore),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read parses an exported document back into log entries. Only the exported
// columns are recovered; ids and explanations are not part of the format.
func Read(r io.Reader) ([]types.LogEntry, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) != len(Header) {
		return nil, fmt.Errorf("unexpected csv header width %d", len(header))
	}

	var logs []types.LogEntry
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		confidence, err := strconv.Atoi(record[5])
		if err != nil {
			return nil, fmt.Errorf("invalid confidence %q: %w", record[5], err)
		}

		var patterns []string
		if record[4] != "" {
			patterns = strings.Split(record[4], patternSeparator)
		}

		logs = append(logs, types.LogEntry{
			Timestamp:   record[0],
			Source:      record[1],
			Activity:    record[2],
			ThreatLevel: types.ThreatLevel(record[3]),
			Details: types.ThreatAnalysis{
				ThreatLevel:      types.ThreatLevel(record[3]),
				ConfidenceScore:  confidence,
				DetectedPatterns: patterns,
				Source:           record[1],
				Activity:         record[2],
			},
		})
	}
	return logs, nil
}
