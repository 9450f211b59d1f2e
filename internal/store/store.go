// Package store persists the tool's working data under the data
// directory: the timestamped TV-Plan caches, stub fixtures, and the
// stats history.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
)

const (
	countriesFile = "countries.json"
	channelsFile  = "channels.json"
	historyFile   = "stats-history.json"
	stubDir       = "stub/channels"
)

// ErrNotCached is returned when a cache file does not exist yet.
var ErrNotCached = errors.New("not cached")

// envelope is the on-disk wrapper around cached API data. The timestamp
// stays a string so that a malformed value degrades to "stale" instead
// of failing the whole load.
type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// ChannelSet is the cached channel list of one country.
type ChannelSet struct {
	Channels  []domain.Channel
	FetchedAt time.Time
}

// Store reads and writes the data directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// ParseTimestamp parses a cache timestamp. The zero time is returned for
// anything unparseable, which sorts before every real timestamp and is
// always considered stale.
func ParseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

// Stale reports whether data fetched at ts is older than maxAge at now.
// The zero time is always stale.
func Stale(ts time.Time, maxAge time.Duration, now time.Time) bool {
	if ts.IsZero() {
		return true
	}
	return now.Sub(ts) > maxAge
}

// LoadCountries returns the cached country list and its fetch time.
// ErrNotCached is returned when the file does not exist.
func (s *Store) LoadCountries() ([]domain.Country, time.Time, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, countriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, ErrNotCached
		}
		return nil, time.Time{}, fmt.Errorf("failed to read countries cache: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode countries cache: %w", err)
	}
	var countries []domain.Country
	if err := json.Unmarshal(env.Data, &countries); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode countries cache: %w", err)
	}
	return countries, ParseTimestamp(env.Timestamp), nil
}

// SaveCountries writes the country list with the current UTC time.
func (s *Store) SaveCountries(countries []domain.Country) error {
	data, err := json.Marshal(countries)
	if err != nil {
		return fmt.Errorf("failed to encode countries: %w", err)
	}
	env := envelope{Data: data, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
	return s.writeJSON(countriesFile, env)
}

// LoadChannelSets returns the cached channels keyed by country ID.
// A missing file yields an empty map, not an error: a fresh checkout
// simply has no channel data yet.
func (s *Store) LoadChannelSets() (map[string]ChannelSet, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, channelsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ChannelSet{}, nil
		}
		return nil, fmt.Errorf("failed to read channels cache: %w", err)
	}
	var envs map[string]envelope
	if err := json.Unmarshal(raw, &envs); err != nil {
		return nil, fmt.Errorf("failed to decode channels cache: %w", err)
	}
	sets := make(map[string]ChannelSet, len(envs))
	for countryID, env := range envs {
		var channels []domain.Channel
		if err := json.Unmarshal(env.Data, &channels); err != nil {
			return nil, fmt.Errorf("failed to decode channels for country %s: %w", countryID, err)
		}
		sets[countryID] = ChannelSet{Channels: channels, FetchedAt: ParseTimestamp(env.Timestamp)}
	}
	return sets, nil
}

// SaveChannelSets writes the full channels cache. Called after every
// country so an aborted refresh keeps its progress.
func (s *Store) SaveChannelSets(sets map[string]ChannelSet) error {
	envs := make(map[string]envelope, len(sets))
	for countryID, set := range sets {
		data, err := json.Marshal(set.Channels)
		if err != nil {
			return fmt.Errorf("failed to encode channels for country %s: %w", countryID, err)
		}
		envs[countryID] = envelope{Data: data, Timestamp: set.FetchedAt.UTC().Format(time.RFC3339Nano)}
	}
	return s.writeJSON(channelsFile, envs)
}

// WriteStub stores the raw program payload of one channel as a fixture
// and returns the file path.
func (s *Store) WriteStub(channelID string, raw json.RawMessage) (string, error) {
	dir := filepath.Join(s.dir, stubDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create stub directory: %w", err)
	}
	indented, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format stub payload: %w", err)
	}
	path := filepath.Join(dir, channelID+".json")
	if err := os.WriteFile(path, indented, 0o644); err != nil {
		return "", fmt.Errorf("failed to write stub file: %w", err)
	}
	return path, nil
}

// WriteOptions writes the generated options.yml and returns the file path.
func (s *Store) WriteOptions(data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(s.dir, "options.yml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write options.yml: %w", err)
	}
	return path, nil
}

// LoadHistory returns all recorded stats snapshots, oldest first.
// A missing file yields an empty history.
func (s *Store) LoadHistory() ([]domain.StatsSnapshot, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, historyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read stats history: %w", err)
	}
	var history []domain.StatsSnapshot
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("failed to decode stats history: %w", err)
	}
	return history, nil
}

// AppendSnapshot adds one observation to the stats history.
func (s *Store) AppendSnapshot(snap domain.StatsSnapshot) error {
	history, err := s.LoadHistory()
	if err != nil {
		return err
	}
	history = append(history, snap)
	return s.writeJSON(historyFile, history)
}

func (s *Store) writeJSON(name string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
