package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/gateway"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
)

// DefaultCountriesMaxAge is how long the cached country list is reused
// before it is fetched again.
const DefaultCountriesMaxAge = 7 * 24 * time.Hour

// RefreshResult summarizes one catalog refresh run.
type RefreshResult struct {
	Countries   int  `json:"countries"`
	Refreshed   int  `json:"refreshed"`
	Failed      int  `json:"failed"`
	RateLimited bool `json:"rate_limited"`
}

// Refresher is the use case for maintaining the channel catalog cache.
// It orchestrates fetching countries and per-country channel lists.
type Refresher struct {
	fetcher gateway.TVPlanFetcher
	store   *store.Store
	logger  *log.Logger
	maxAge  time.Duration
	delay   time.Duration
	now     func() time.Time
	sleep   func(time.Duration)
}

// NewRefresher creates a new Refresher instance. maxAge bounds the age
// of the cached country list and delay is the pause between channel
// requests.
func NewRefresher(fetcher gateway.TVPlanFetcher, st *store.Store, logger *log.Logger, maxAge, delay time.Duration) *Refresher {
	return &Refresher{
		fetcher: fetcher,
		store:   st,
		logger:  logger,
		maxAge:  maxAge,
		delay:   delay,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Refresh brings the channel cache up to date. Countries with no cached
// channels are fetched first, then the rest from oldest to newest. The
// cache file is saved after every country so an aborted run keeps its
// progress. A TV-Plan rate limit stops the run cleanly; the result
// reports how far it got.
func (r *Refresher) Refresh(ctx context.Context) (*RefreshResult, error) {
	countries, err := r.loadCountries(ctx)
	if err != nil {
		return nil, err
	}

	sets, err := r.store.LoadChannelSets()
	if err != nil {
		return nil, err
	}
	r.logger.Printf("Found existing channel data for %d countries\n", len(sets))

	ordered := orderForRefresh(countries, sets)
	result := &RefreshResult{Countries: len(countries)}

	for i, country := range ordered {
		if set, ok := sets[country.ID]; ok {
			r.logger.Printf("[UPDATE] %s (last updated %s)\n", country.Label(), set.FetchedAt.Format(time.RFC3339))
		} else {
			r.logger.Printf("[NEW] %s\n", country.Label())
		}

		channels, err := r.fetcher.FetchChannels(ctx, country.ID)
		if errors.Is(err, gateway.ErrRateLimited) {
			r.logger.Println("Rate limit reached, stopping refresh.")
			result.RateLimited = true
			return result, nil
		}
		if err != nil {
			r.logger.Printf("Skipping %s: %v\n", country.Label(), err)
			result.Failed++
			continue
		}

		sets[country.ID] = store.ChannelSet{Channels: channels, FetchedAt: r.now().UTC()}
		if err := r.store.SaveChannelSets(sets); err != nil {
			return result, err
		}
		result.Refreshed++

		if r.delay > 0 && i < len(ordered)-1 {
			r.sleep(r.delay)
		}
	}
	return result, nil
}

// loadCountries returns the cached country list, refetching it when it
// is missing, unreadable, or older than maxAge.
func (r *Refresher) loadCountries(ctx context.Context) ([]domain.Country, error) {
	countries, fetchedAt, err := r.store.LoadCountries()
	switch {
	case errors.Is(err, store.ErrNotCached):
		r.logger.Println("No cached countries, fetching...")
	case err != nil:
		r.logger.Printf("Countries cache unreadable (%v), refetching...\n", err)
	case store.Stale(fetchedAt, r.maxAge, r.now().UTC()):
		r.logger.Println("Cached countries are stale, refreshing...")
	default:
		r.logger.Printf("Using cached countries from %s\n", fetchedAt.Format(time.RFC3339))
		return countries, nil
	}

	countries, err = r.fetcher.FetchCountries(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.store.SaveCountries(countries); err != nil {
		return nil, fmt.Errorf("failed to save countries: %w", err)
	}
	return countries, nil
}

// orderForRefresh sorts countries so that those without cached channels
// come first, followed by the rest from oldest to newest fetch time.
func orderForRefresh(countries []domain.Country, sets map[string]store.ChannelSet) []domain.Country {
	ordered := make([]domain.Country, len(countries))
	copy(ordered, countries)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, iOK := sets[ordered[i].ID]
		sj, jOK := sets[ordered[j].ID]
		if iOK != jOK {
			return !iOK
		}
		return si.FetchedAt.Before(sj.FetchedAt)
	})
	return ordered
}
