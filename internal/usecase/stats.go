package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/gateway"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
)

// StatsUpdater is the use case behind the README stats block: it pulls
// the marketplace and repository numbers, rewrites the block in place,
// and records a history snapshot.
type StatsUpdater struct {
	recipes gateway.RecipeFetcher
	repos   gateway.RepoFetcher
	store   *store.Store
	logger  *log.Logger
	now     func() time.Time
}

// NewStatsUpdater creates a new StatsUpdater instance. repos may be nil
// when no GitHub repository is configured.
func NewStatsUpdater(recipes gateway.RecipeFetcher, repos gateway.RepoFetcher, st *store.Store, logger *log.Logger) *StatsUpdater {
	return &StatsUpdater{
		recipes: recipes,
		repos:   repos,
		store:   st,
		logger:  logger,
		now:     time.Now,
	}
}

// Update fetches the current numbers, rewrites the stats block of the
// README at readmePath, and appends a history snapshot. Nothing is
// written when the upstream numbers are invalid or a marker is broken.
func (u *StatsUpdater) Update(ctx context.Context, recipeID, owner, repo, readmePath string) (*domain.PluginStats, *domain.RepoMetrics, error) {
	u.logger.Println("Usecase: Starting stats update...")

	var installs, forks int
	var metrics *domain.RepoMetrics

	// Fetch marketplace and repository numbers concurrently.
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		installs, forks, err = u.recipes.FetchRecipeStats(egCtx, recipeID)
		return err
	})

	if u.repos != nil && owner != "" && repo != "" {
		eg.Go(func() error {
			var err error
			metrics, err = u.repos.FetchMetrics(egCtx, owner, repo)
			return err
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	if installs < 0 || forks < 0 {
		return nil, nil, fmt.Errorf("upstream reported negative counts (installs=%d, forks=%d)", installs, forks)
	}

	pluginStats := domain.PluginStats{
		UpdatedAt: u.now().UTC(),
		Installs:  installs,
		Forks:     forks,
	}

	card := DefaultCard()
	if metrics != nil && metrics.Description != "" {
		card.Description = metrics.Description
	}

	readme, err := os.ReadFile(readmePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read README: %w", err)
	}
	updated, err := ReplaceStatsBlock(string(readme), RenderStatsBlock(pluginStats, card))
	if err != nil {
		return nil, nil, err
	}
	if err := os.WriteFile(readmePath, []byte(updated), 0o644); err != nil {
		return nil, nil, fmt.Errorf("failed to write README: %w", err)
	}

	snap := domain.StatsSnapshot{Timestamp: pluginStats.UpdatedAt, Installs: installs, Forks: forks}
	if err := u.store.AppendSnapshot(snap); err != nil {
		return nil, nil, err
	}

	u.logger.Println("Usecase: Stats update complete.")
	return &pluginStats, metrics, nil
}

// Check lints the README at readmePath without modifying anything.
func (u *StatsUpdater) Check(readmePath string) ([]string, error) {
	readme, err := os.ReadFile(readmePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read README: %w", err)
	}
	return LintReadme(string(readme)), nil
}

// Summarize aggregates the recorded history. It fails on an empty
// history; with a single snapshot the delta fields stay zero.
func (u *StatsUpdater) Summarize() (*domain.StatsSummary, error) {
	history, err := u.store.LoadHistory()
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, errors.New("stats history is empty; run an update first")
	}

	installs := make(stats.Float64Data, len(history))
	forks := make(stats.Float64Data, len(history))
	for i, snap := range history {
		installs[i] = float64(snap.Installs)
		forks[i] = float64(snap.Forks)
	}
	var deltas stats.Float64Data
	for i := 1; i < len(history); i++ {
		deltas = append(deltas, float64(history[i].Installs-history[i-1].Installs))
	}

	summary := &domain.StatsSummary{
		Snapshots: len(history),
		From:      history[0].Timestamp.UTC().Format(time.RFC3339),
		To:        history[len(history)-1].Timestamp.UTC().Format(time.RFC3339),
	}
	if summary.MinInstalls, err = stats.Min(installs); err != nil {
		return nil, fmt.Errorf("failed to summarize installs: %w", err)
	}
	if summary.MaxInstalls, err = stats.Max(installs); err != nil {
		return nil, fmt.Errorf("failed to summarize installs: %w", err)
	}
	if summary.MeanInstalls, err = stats.Mean(installs); err != nil {
		return nil, fmt.Errorf("failed to summarize installs: %w", err)
	}
	if summary.MedianInstalls, err = stats.Median(installs); err != nil {
		return nil, fmt.Errorf("failed to summarize installs: %w", err)
	}
	if summary.MinForks, err = stats.Min(forks); err != nil {
		return nil, fmt.Errorf("failed to summarize forks: %w", err)
	}
	if summary.MaxForks, err = stats.Max(forks); err != nil {
		return nil, fmt.Errorf("failed to summarize forks: %w", err)
	}
	if summary.MeanForks, err = stats.Mean(forks); err != nil {
		return nil, fmt.Errorf("failed to summarize forks: %w", err)
	}
	if summary.MedianForks, err = stats.Median(forks); err != nil {
		return nil, fmt.Errorf("failed to summarize forks: %w", err)
	}
	if len(deltas) > 0 {
		if summary.MinInstallDelta, err = stats.Min(deltas); err != nil {
			return nil, fmt.Errorf("failed to summarize install deltas: %w", err)
		}
		if summary.MaxInstallDelta, err = stats.Max(deltas); err != nil {
			return nil, fmt.Errorf("failed to summarize install deltas: %w", err)
		}
		if summary.MeanInstallDelta, err = stats.Mean(deltas); err != nil {
			return nil, fmt.Errorf("failed to summarize install deltas: %w", err)
		}
		if summary.MedianInstallDelta, err = stats.Median(deltas); err != nil {
			return nil, fmt.Errorf("failed to summarize install deltas: %w", err)
		}
	}
	return summary, nil
}
