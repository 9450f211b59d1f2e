// Package usecase contains the business logic of the application.
package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
)

// Marker lines bounding the machine-maintained section of the README.
// Everything outside them is never touched by the updater.
const (
	StatsStartMarker = "<!-- PLUGIN_STATS_START -->"
	StatsEndMarker   = "<!-- PLUGIN_STATS_END -->"
)

const statsTimeLayout = "2006-01-02 15:04:05 MST"

const lastUpdatedPrefix = "Last updated: "

var (
	// ErrMarkerMissing is returned when a README lacks one of the stats markers.
	ErrMarkerMissing = errors.New("stats marker missing")
	// ErrMarkerDuplicated is returned when a marker appears more than once.
	ErrMarkerDuplicated = errors.New("stats marker duplicated")
	// ErrMarkerOrder is returned when the end marker precedes the start marker.
	ErrMarkerOrder = errors.New("stats markers out of order")
)

// Card is the static plugin listing content rendered inside the stats
// block, above the statistics table.
type Card struct {
	Title       string
	IconURL     string
	Description string
	Features    []string
}

// DefaultCard returns the TV Guide plugin listing card. The description
// is overridden with the live repository description when available.
func DefaultCard() Card {
	return Card{
		Title:       "TV Guide",
		IconURL:     "assets/icon.png",
		Description: "Display TV program schedules on your TRMNL e-ink device.",
		Features: []string{
			"Live TV schedule with current and upcoming programs",
			"Support for channels from multiple countries",
			"Highlights currently airing programs",
		},
	}
}

// RenderStatsBlock produces the full marker-delimited README section for
// the given stats. Output is stable: identical input yields identical text.
func RenderStatsBlock(stats domain.PluginStats, card Card) string {
	var b strings.Builder
	b.WriteString(StatsStartMarker + "\n")
	fmt.Fprintf(&b, "## %s\n\n", card.Title)
	fmt.Fprintf(&b, "%s%s\n\n", lastUpdatedPrefix, stats.UpdatedAt.UTC().Format(statsTimeLayout))
	fmt.Fprintf(&b, "![%s](%s)\n\n", card.Title, card.IconURL)
	b.WriteString(card.Description + "\n")
	if len(card.Features) > 0 {
		b.WriteString("\n")
		for _, feature := range card.Features {
			fmt.Fprintf(&b, "- %s\n", feature)
		}
	}
	b.WriteString("\n| Metric | Count |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Installs | %d |\n", stats.Installs)
	fmt.Fprintf(&b, "| Forks | %d |\n", stats.Forks)
	b.WriteString(StatsEndMarker)
	return b.String()
}

// ReplaceStatsBlock swaps the marker-delimited section of readme for
// block, leaving every byte outside the markers untouched. The block is
// expected to carry its own markers, as RenderStatsBlock produces.
func ReplaceStatsBlock(readme, block string) (string, error) {
	if err := checkMarkers(readme); err != nil {
		return "", err
	}
	start := strings.Index(readme, StatsStartMarker)
	end := strings.Index(readme, StatsEndMarker)
	return readme[:start] + block + readme[end+len(StatsEndMarker):], nil
}

func checkMarkers(readme string) error {
	startCount := strings.Count(readme, StatsStartMarker)
	endCount := strings.Count(readme, StatsEndMarker)
	switch {
	case startCount == 0:
		return fmt.Errorf("%w: %s", ErrMarkerMissing, StatsStartMarker)
	case endCount == 0:
		return fmt.Errorf("%w: %s", ErrMarkerMissing, StatsEndMarker)
	case startCount > 1:
		return fmt.Errorf("%w: %s", ErrMarkerDuplicated, StatsStartMarker)
	case endCount > 1:
		return fmt.Errorf("%w: %s", ErrMarkerDuplicated, StatsEndMarker)
	}
	if strings.Index(readme, StatsEndMarker) < strings.Index(readme, StatsStartMarker) {
		return ErrMarkerOrder
	}
	return nil
}

// LintReadme checks a README against the stats block contract and
// returns a list of human-readable violations. An empty list means the
// document is well-formed.
func LintReadme(readme string) []string {
	if err := checkMarkers(readme); err != nil {
		return []string{err.Error()}
	}

	start := strings.Index(readme, StatsStartMarker) + len(StatsStartMarker)
	end := strings.Index(readme, StatsEndMarker)
	block := readme[start:end]

	var violations []string

	if ts, ok := findLastUpdated(block); !ok {
		violations = append(violations, "last-updated line missing or unparseable")
	} else if ts.After(time.Now().UTC().Add(time.Hour)) {
		violations = append(violations, "last-updated timestamp is in the future")
	}

	rows := tableDataRows(block)
	if len(rows) != 2 {
		violations = append(violations, fmt.Sprintf("statistics table has %d data rows, want 2", len(rows)))
		return violations
	}
	violations = append(violations, checkStatRow(rows[0], "Installs")...)
	violations = append(violations, checkStatRow(rows[1], "Forks")...)
	return violations
}

func findLastUpdated(block string) (time.Time, bool) {
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, lastUpdatedPrefix) {
			continue
		}
		ts, err := time.Parse(statsTimeLayout, strings.TrimPrefix(line, lastUpdatedPrefix))
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}
	return time.Time{}, false
}

// tableDataRows returns the cell slices of the table's data rows,
// skipping the header and its separator.
func tableDataRows(block string) [][]string {
	var rows [][]string
	inTable := false
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			if inTable {
				break
			}
			continue
		}
		cells := splitTableRow(line)
		if !inTable {
			// Header row.
			inTable = true
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}
		rows = append(rows, cells)
	}
	return rows
}

func splitTableRow(line string) []string {
	trimmed := strings.Trim(line, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

func checkStatRow(cells []string, metric string) []string {
	if len(cells) != 2 {
		return []string{fmt.Sprintf("%s row has %d cells, want 2", metric, len(cells))}
	}
	if cells[0] != metric {
		return []string{fmt.Sprintf("expected %s row, found %q", metric, cells[0])}
	}
	n, err := strconv.Atoi(cells[1])
	if err != nil {
		return []string{fmt.Sprintf("%s count %q is not an integer", metric, cells[1])}
	}
	if n < 0 {
		return []string{fmt.Sprintf("%s count is negative: %d", metric, n)}
	}
	return nil
}
