package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/gateway"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
)

// StubResult summarizes one fixture capture run.
type StubResult struct {
	Total   int `json:"total"`
	Fetched int `json:"fetched"`
	Failed  int `json:"failed"`
}

// Stubber is the use case for capturing program payloads as test fixtures.
type Stubber struct {
	fetcher gateway.TVPlanFetcher
	store   *store.Store
	logger  *log.Logger
}

// NewStubber creates a new Stubber instance.
func NewStubber(fetcher gateway.TVPlanFetcher, st *store.Store, logger *log.Logger) *Stubber {
	return &Stubber{fetcher: fetcher, store: st, logger: logger}
}

// ParseChannelIDs splits a comma-separated channel ID list, trimming
// whitespace and dropping blanks.
func ParseChannelIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Capture fetches the schedule of every given channel and stores the
// raw payload as a fixture. Per-channel failures are counted, not
// fatal; the run fails only when nothing could be fetched.
func (s *Stubber) Capture(ctx context.Context, channelIDs []string) (*StubResult, error) {
	if len(channelIDs) == 0 {
		return nil, errors.New("no channel IDs given")
	}

	result := &StubResult{Total: len(channelIDs)}
	for i, channelID := range channelIDs {
		s.logger.Printf("[%d/%d] channel %s\n", i+1, len(channelIDs), channelID)

		raw, err := s.fetcher.FetchPrograms(ctx, channelID)
		if err != nil {
			s.logger.Printf("Failed to fetch channel %s: %v\n", channelID, err)
			result.Failed++
			continue
		}

		// The payload is stored verbatim, but decode it anyway so a
		// broken fixture is caught at capture time rather than in tests.
		var programs []domain.Program
		if err := json.Unmarshal(raw, &programs); err != nil {
			s.logger.Printf("Channel %s returned a non-schedule payload\n", channelID)
		} else {
			s.logger.Printf("Channel %s: %d programs\n", channelID, len(programs))
		}

		path, err := s.store.WriteStub(channelID, raw)
		if err != nil {
			s.logger.Printf("Failed to write fixture for channel %s: %v\n", channelID, err)
			result.Failed++
			continue
		}
		s.logger.Printf("Saved %s\n", path)
		result.Fetched++
	}

	if result.Fetched == 0 {
		return result, errors.New("all channel fetches failed")
	}
	return result, nil
}
