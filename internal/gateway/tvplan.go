// Package gateway provides clients for the upstream services the tool
// talks to: the TV-Plan API, the TRMNL marketplace, and GitHub.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
)

// DefaultTVPlanBaseURL is the production TV-Plan API endpoint.
const DefaultTVPlanBaseURL = "https://tv-plan.org/api-v1.php"

// ErrRateLimited is returned when the TV-Plan API answers 429. The
// caller is expected to stop and retry in a later run.
var ErrRateLimited = errors.New("tv-plan api rate limit reached")

// TVPlanFetcher defines the behavior of a gateway for fetching TV-Plan data.
type TVPlanFetcher interface {
	FetchCountries(ctx context.Context) ([]domain.Country, error)
	FetchChannels(ctx context.Context, countryID string) ([]domain.Channel, error)
	FetchPrograms(ctx context.Context, channelID string) (json.RawMessage, error)
}

// TVPlanGateway is the concrete implementation of the TVPlanFetcher interface.
type TVPlanGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *log.Logger
}

// NewTVPlanGateway creates a TV-Plan client. An empty baseURL selects
// the production endpoint.
func NewTVPlanGateway(baseURL, apiKey string, logger *log.Logger) *TVPlanGateway {
	if baseURL == "" {
		baseURL = DefaultTVPlanBaseURL
	}
	return &TVPlanGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// FetchCountries returns all countries known to TV-Plan.
func (g *TVPlanGateway) FetchCountries(ctx context.Context) ([]domain.Country, error) {
	g.logger.Println("Fetching countries from TV-Plan...")
	var countries []domain.Country
	if err := g.get(ctx, "countries", nil, &countries); err != nil {
		return nil, fmt.Errorf("failed to fetch countries: %w", err)
	}
	g.logger.Printf("Fetched %d countries\n", len(countries))
	return countries, nil
}

// FetchChannels returns the channels of one country.
func (g *TVPlanGateway) FetchChannels(ctx context.Context, countryID string) ([]domain.Channel, error) {
	g.logger.Printf("Fetching channels for country %s...\n", countryID)
	var channels []domain.Channel
	params := url.Values{"countryId": {countryID}}
	if err := g.get(ctx, "channelsOfCountry", params, &channels); err != nil {
		return nil, fmt.Errorf("failed to fetch channels for country %s: %w", countryID, err)
	}
	g.logger.Printf("Fetched %d channels for country %s\n", len(channels), countryID)
	return channels, nil
}

// FetchPrograms returns the raw schedule payload of one channel. The
// payload is kept verbatim because it is stored as a test fixture.
func (g *TVPlanGateway) FetchPrograms(ctx context.Context, channelID string) (json.RawMessage, error) {
	g.logger.Printf("Fetching programs for channel %s...\n", channelID)
	var raw json.RawMessage
	params := url.Values{"channelId": {channelID}}
	if err := g.get(ctx, "programsOfChannel", params, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch programs for channel %s: %w", channelID, err)
	}
	return raw, nil
}

func (g *TVPlanGateway) get(ctx context.Context, resource string, params url.Values, out interface{}) error {
	query := url.Values{"apitoken": {g.apiKey}, "resource": {resource}}
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
