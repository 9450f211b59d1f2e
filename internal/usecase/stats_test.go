package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
)

// mockRecipeFetcher is a mock implementation of the gateway.RecipeFetcher interface.
type mockRecipeFetcher struct {
	mock.Mock
}

func (m *mockRecipeFetcher) FetchRecipeStats(ctx context.Context, recipeID string) (int, int, error) {
	args := m.Called(ctx, recipeID)
	return args.Int(0), args.Int(1), args.Error(2)
}

// mockRepoFetcher is a mock implementation of the gateway.RepoFetcher interface.
type mockRepoFetcher struct {
	mock.Mock
}

func (m *mockRepoFetcher) FetchMetrics(ctx context.Context, owner, name string) (*domain.RepoMetrics, error) {
	args := m.Called(ctx, owner, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepoMetrics), args.Error(1)
}

func writeTestReadme(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "README.md")
	readme := sampleReadme(StatsStartMarker + "\nstale\n" + StatsEndMarker)
	require.NoError(t, os.WriteFile(path, []byte(readme), 0o644))
	return path
}

func TestStatsUpdater_Update(t *testing.T) {
	st := store.New(t.TempDir())
	readmePath := writeTestReadme(t)

	recipes := new(mockRecipeFetcher)
	recipes.On("FetchRecipeStats", mock.Anything, "tv-guide").Return(123, 4, nil)
	repos := new(mockRepoFetcher)
	repos.On("FetchMetrics", mock.Anything, "ExcuseMi", "trmnl-tv-guide.plugin").Return(&domain.RepoMetrics{
		FullName:    "ExcuseMi/trmnl-tv-guide.plugin",
		Description: "TV schedules for TRMNL",
		Forks:       4,
		Stars:       12,
		Watchers:    3,
	}, nil)

	updater := NewStatsUpdater(recipes, repos, st, log.New(io.Discard, "", 0))
	pluginStats, metrics, err := updater.Update(context.Background(), "tv-guide", "ExcuseMi", "trmnl-tv-guide.plugin", readmePath)
	require.NoError(t, err)

	assert.Equal(t, 123, pluginStats.Installs)
	assert.Equal(t, 4, pluginStats.Forks)
	assert.Equal(t, 12, metrics.Stars)

	// The README block was rewritten with the fetched numbers and the
	// repository description, and everything around it survived.
	updated, err := os.ReadFile(readmePath)
	require.NoError(t, err)
	assert.NotContains(t, string(updated), "stale")
	assert.Contains(t, string(updated), "| Installs | 123 |")
	assert.Contains(t, string(updated), "| Forks | 4 |")
	assert.Contains(t, string(updated), "TV schedules for TRMNL")
	assert.Contains(t, string(updated), "Footer text.")
	assert.Empty(t, LintReadme(string(updated)))

	// A history snapshot was recorded.
	history, err := st.LoadHistory()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 123, history[0].Installs)
}

func TestStatsUpdater_Update_WithoutRepo(t *testing.T) {
	st := store.New(t.TempDir())
	readmePath := writeTestReadme(t)

	recipes := new(mockRecipeFetcher)
	recipes.On("FetchRecipeStats", mock.Anything, "tv-guide").Return(7, 0, nil)

	updater := NewStatsUpdater(recipes, nil, st, log.New(io.Discard, "", 0))
	pluginStats, metrics, err := updater.Update(context.Background(), "tv-guide", "", "", readmePath)
	require.NoError(t, err)

	assert.Nil(t, metrics)
	assert.Equal(t, 7, pluginStats.Installs)

	updated, err := os.ReadFile(readmePath)
	require.NoError(t, err)
	// Falls back to the default card description.
	assert.Contains(t, string(updated), DefaultCard().Description)
}

func TestStatsUpdater_Update_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		installs       int
		forks          int
		fetchErr       error
		expectedErrMsg string
	}{
		{
			name:           "negative installs rejected",
			installs:       -1,
			forks:          0,
			expectedErrMsg: "negative counts",
		},
		{
			name:           "negative forks rejected",
			installs:       10,
			forks:          -2,
			expectedErrMsg: "negative counts",
		},
		{
			name:           "fetch failure propagates",
			fetchErr:       errors.New("marketplace down"),
			expectedErrMsg: "marketplace down",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := store.New(t.TempDir())
			readmePath := writeTestReadme(t)
			before, err := os.ReadFile(readmePath)
			require.NoError(t, err)

			recipes := new(mockRecipeFetcher)
			recipes.On("FetchRecipeStats", mock.Anything, "tv-guide").Return(tc.installs, tc.forks, tc.fetchErr)

			updater := NewStatsUpdater(recipes, nil, st, log.New(io.Discard, "", 0))
			_, _, err = updater.Update(context.Background(), "tv-guide", "", "", readmePath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)

			// Nothing was written: the README is untouched and no
			// snapshot was recorded.
			after, err := os.ReadFile(readmePath)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			history, err := st.LoadHistory()
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestStatsUpdater_Update_BrokenMarkers(t *testing.T) {
	st := store.New(t.TempDir())
	readmePath := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(readmePath, []byte("no markers here"), 0o644))

	recipes := new(mockRecipeFetcher)
	recipes.On("FetchRecipeStats", mock.Anything, "tv-guide").Return(1, 1, nil)

	updater := NewStatsUpdater(recipes, nil, st, log.New(io.Discard, "", 0))
	_, _, err := updater.Update(context.Background(), "tv-guide", "", "", readmePath)
	assert.ErrorIs(t, err, ErrMarkerMissing)
}

func TestStatsUpdater_Check(t *testing.T) {
	st := store.New(t.TempDir())
	readmePath := writeTestReadme(t)
	updater := NewStatsUpdater(nil, nil, st, log.New(io.Discard, "", 0))

	// The seeded README has markers but no valid block content.
	violations, err := updater.Check(readmePath)
	require.NoError(t, err)
	assert.NotEmpty(t, violations)

	// After rendering a proper block it passes.
	block := RenderStatsBlock(sampleStats(), DefaultCard())
	require.NoError(t, os.WriteFile(readmePath, []byte(sampleReadme(block)), 0o644))
	violations, err = updater.Check(readmePath)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestStatsUpdater_Summarize(t *testing.T) {
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		snapshots []domain.StatsSnapshot
		expectErr bool
		check     func(t *testing.T, s *domain.StatsSummary)
	}{
		{
			name:      "empty history errors",
			expectErr: true,
		},
		{
			name: "single snapshot has zero deltas",
			snapshots: []domain.StatsSnapshot{
				{Timestamp: base, Installs: 10, Forks: 2},
			},
			check: func(t *testing.T, s *domain.StatsSummary) {
				assert.Equal(t, 1, s.Snapshots)
				assert.Equal(t, 10.0, s.MinInstalls)
				assert.Equal(t, 10.0, s.MaxInstalls)
				assert.Equal(t, 2.0, s.MeanForks)
				assert.Equal(t, 2.0, s.MedianForks)
				assert.Equal(t, 0.0, s.MinInstallDelta)
				assert.Equal(t, 0.0, s.MaxInstallDelta)
				assert.Equal(t, 0.0, s.MeanInstallDelta)
			},
		},
		{
			name: "multiple snapshots",
			snapshots: []domain.StatsSnapshot{
				{Timestamp: base, Installs: 10, Forks: 1},
				{Timestamp: base.AddDate(0, 0, 1), Installs: 14, Forks: 2},
				{Timestamp: base.AddDate(0, 0, 2), Installs: 20, Forks: 2},
			},
			check: func(t *testing.T, s *domain.StatsSummary) {
				assert.Equal(t, 3, s.Snapshots)
				assert.Equal(t, 10.0, s.MinInstalls)
				assert.Equal(t, 20.0, s.MaxInstalls)
				assert.InDelta(t, 14.666, s.MeanInstalls, 0.01)
				assert.Equal(t, 14.0, s.MedianInstalls)
				assert.Equal(t, 1.0, s.MinForks)
				assert.Equal(t, 2.0, s.MaxForks)
				assert.InDelta(t, 1.666, s.MeanForks, 0.01)
				assert.Equal(t, 2.0, s.MedianForks)
				assert.Equal(t, 4.0, s.MinInstallDelta)
				assert.Equal(t, 6.0, s.MaxInstallDelta)
				assert.Equal(t, 5.0, s.MeanInstallDelta)
				assert.Equal(t, 5.0, s.MedianInstallDelta)
				assert.Equal(t, "2024-08-01T00:00:00Z", s.From)
				assert.Equal(t, "2024-08-03T00:00:00Z", s.To)
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := store.New(t.TempDir())
			for _, snap := range tc.snapshots {
				require.NoError(t, st.AppendSnapshot(snap))
			}
			updater := NewStatsUpdater(nil, nil, st, log.New(io.Discard, "", 0))

			summary, err := updater.Summarize()
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.check(t, summary)
		})
	}
}

func TestStatsUpdater_Summarize_JSONFields(t *testing.T) {
	st := store.New(t.TempDir())
	base := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.AppendSnapshot(domain.StatsSnapshot{
			Timestamp: base.AddDate(0, 0, i),
			Installs:  10 + i,
			Forks:     i,
		}))
	}
	updater := NewStatsUpdater(nil, nil, st, log.New(io.Discard, "", 0))

	summary, err := updater.Summarize()
	require.NoError(t, err)
	data, err := json.Marshal(summary)
	require.NoError(t, err)

	// The summary JSON carries every aggregate for installs, forks and
	// install deltas.
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{
		"min_installs", "max_installs", "mean_installs", "median_installs",
		"min_forks", "max_forks", "mean_forks", "median_forks",
		"min_install_delta", "max_install_delta", "mean_install_delta", "median_install_delta",
	} {
		assert.Contains(t, decoded, key)
	}
}
