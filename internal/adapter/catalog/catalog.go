// Package catalog provides CSV-based archive catalog loading.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lautanlab/lautan/internal/domain"
)

// Entry is one catalog row identifying a physical variable's archive access:
// the init date anchoring the relative-hour time axis, the near-real-time
// cutover date, and one OPeNDAP URL per vintage. Immutable, loaded once per
// run.
type Entry struct {
	Parameter       string
	Temporal        string
	InitDate        time.Time
	NRTDate         time.Time
	MultiYearURL    string
	NearRealTimeURL string
	Title           string
	ValueMin        float64
	ValueMax        float64
}

// URL returns the archive URL for a vintage.
func (e Entry) URL(v domain.Vintage) string {
	if v == domain.NearRealTime {
		return e.NearRealTimeURL
	}
	return e.MultiYearURL
}

// LookupError reports a catalog lookup that did not match exactly one row,
// which is a configuration error in the catalog file.
type LookupError struct {
	Parameter string
	Temporal  string
	Matches   int
}

func (e *LookupError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("no catalog entry for parameter %q at temporal resolution %q", e.Parameter, e.Temporal)
	}
	return fmt.Sprintf("%d catalog entries for parameter %q at temporal resolution %q, want exactly 1", e.Matches, e.Parameter, e.Temporal)
}

// Store provides access to the archive catalog.
type Store struct {
	entries []Entry
}

var expectedHeader = []string{
	"parameter", "temporal", "init_date", "nrt_date",
	"opendap_my", "opendap_nrt", "title", "value_min", "value_max",
}

// Load reads the catalog file once at startup.
func Load(path string) (*Store, error) {
	//nolint:gosec // G304: path comes from configuration.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}
	if len(header) != len(expectedHeader) {
		return nil, fmt.Errorf("invalid catalog header: expected %v, got %v", expectedHeader, header)
	}
	for i, h := range header {
		if h != expectedHeader[i] {
			return nil, fmt.Errorf("invalid catalog header: expected column %d to be %s, got %s", i, expectedHeader[i], h)
		}
	}

	entries := make([]Entry, 0)
	for {
		record, err := reader.Read()
		if err != nil {
			// EOF is expected.
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("failed to read catalog record: %w", err)
		}

		entry, err := parseEntry(record)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no entries", path)
	}

	return &Store{entries: entries}, nil
}

func parseEntry(record []string) (Entry, error) {
	if len(record) != len(expectedHeader) {
		return Entry{}, fmt.Errorf("invalid catalog record: expected %d columns, got %d", len(expectedHeader), len(record))
	}

	parameter := strings.TrimSpace(record[0])

	initDate, err := parseDate(record[2])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid init_date for parameter %s: %w", parameter, err)
	}
	nrtDate, err := parseDate(record[3])
	if err != nil {
		return Entry{}, fmt.Errorf("invalid nrt_date for parameter %s: %w", parameter, err)
	}

	valueMin, err := strconv.ParseFloat(strings.TrimSpace(record[7]), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid value_min for parameter %s: %w", parameter, err)
	}
	valueMax, err := strconv.ParseFloat(strings.TrimSpace(record[8]), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid value_max for parameter %s: %w", parameter, err)
	}

	return Entry{
		Parameter:       parameter,
		Temporal:        strings.TrimSpace(record[1]),
		InitDate:        initDate,
		NRTDate:         nrtDate,
		MultiYearURL:    strings.TrimSpace(record[4]),
		NearRealTimeURL: strings.TrimSpace(record[5]),
		Title:           strings.TrimSpace(record[6]),
		ValueMin:        valueMin,
		ValueMax:        valueMax,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
}

// Lookup returns the single entry matching a (parameter, temporal) pair.
// Zero or multiple matches yield a LookupError.
func (s *Store) Lookup(parameter, temporal string) (Entry, error) {
	var found Entry
	matches := 0

	for _, e := range s.entries {
		if e.Parameter == parameter && e.Temporal == temporal {
			found = e
			matches++
		}
	}

	if matches != 1 {
		return Entry{}, &LookupError{Parameter: parameter, Temporal: temporal, Matches: matches}
	}

	return found, nil
}

// Entries returns all catalog rows in file order.
func (s *Store) Entries() []Entry {
	return s.entries
}
