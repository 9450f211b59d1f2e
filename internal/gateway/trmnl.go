package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// DefaultTRMNLBaseURL is the production TRMNL marketplace endpoint.
const DefaultTRMNLBaseURL = "https://usetrmnl.com"

// RecipeFetcher defines the behavior of a gateway for fetching recipe
// stats from the TRMNL marketplace.
type RecipeFetcher interface {
	FetchRecipeStats(ctx context.Context, recipeID string) (installs, forks int, err error)
}

// TRMNLGateway is the concrete implementation of the RecipeFetcher interface.
type TRMNLGateway struct {
	baseURL string
	client  *http.Client
	logger  *log.Logger
}

// NewTRMNLGateway creates a TRMNL marketplace client. An empty baseURL
// selects the production endpoint.
func NewTRMNLGateway(baseURL string, logger *log.Logger) *TRMNLGateway {
	if baseURL == "" {
		baseURL = DefaultTRMNLBaseURL
	}
	return &TRMNLGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// FetchRecipeStats returns the marketplace install and fork counts of a
// recipe. Values are reported as-is; callers validate them.
func (g *TRMNLGateway) FetchRecipeStats(ctx context.Context, recipeID string) (int, int, error) {
	g.logger.Printf("Fetching recipe stats for %s from TRMNL...\n", recipeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/recipes/"+recipeID, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch recipe stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, 0, fmt.Errorf("unexpected status %d from TRMNL: %s", resp.StatusCode, body)
	}

	var payload struct {
		Installs int `json:"installs"`
		Forks    int `json:"forks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, fmt.Errorf("failed to decode recipe stats: %w", err)
	}
	g.logger.Printf("Recipe %s: %d installs, %d forks\n", recipeID, payload.Installs, payload.Forks)
	return payload.Installs, payload.Forks, nil
}
