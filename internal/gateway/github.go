package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
)

// RepoFetcher defines the behavior of a gateway for fetching repository
// metrics from GitHub.
type RepoFetcher interface {
	FetchMetrics(ctx context.Context, owner, name string) (*domain.RepoMetrics, error)
}

// GitHubGateway is the concrete implementation of the RepoFetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// repoMetricsQuery fetches the counters the REST repository record does
// not expose consistently (subscriber vs. watcher semantics).
type repoMetricsQuery struct {
	Repository struct {
		ForkCount      int
		StargazerCount int
		Watchers       struct {
			TotalCount int
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of
// GitHubGateway. The token may be empty for anonymous reads of public
// repositories; the GraphQL API rejects unauthenticated requests, so an
// anonymous gateway works REST-only.
func NewGitHubGateway(token string, logger *log.Logger) (RepoFetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	if token == "" {
		return &GitHubGateway{
			restClient: github.NewClient(&http.Client{Transport: rateLimitWaiter}),
			logger:     logger,
		}, nil
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// FetchMetrics returns the plugin repository's metrics. The repository
// record comes over REST; when authenticated, the counters are refined
// with a GraphQL query (REST reports subscribers, not watchers).
func (g *GitHubGateway) FetchMetrics(ctx context.Context, owner, name string) (*domain.RepoMetrics, error) {
	g.logger.Printf("Fetching repository %s/%s using REST API...\n", owner, name)
	repo, _, err := g.restClient.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository with REST API: %w", err)
	}

	metrics := &domain.RepoMetrics{
		FullName:    repo.GetFullName(),
		Description: repo.GetDescription(),
		Forks:       repo.GetForksCount(),
		Stars:       repo.GetStargazersCount(),
		Watchers:    repo.GetSubscribersCount(),
	}

	if g.graphqlClient == nil {
		g.logger.Println("No token configured, keeping REST counters.")
		return metrics, nil
	}

	g.logger.Println("Fetching repository counters using GraphQL API...")
	var q repoMetricsQuery
	variables := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for repository counters: %w", err)
	}
	metrics.Forks = q.Repository.ForkCount
	metrics.Stars = q.Repository.StargazerCount
	metrics.Watchers = q.Repository.Watchers.TotalCount

	g.logger.Println("Completed fetching repository metrics.")
	return metrics, nil
}
