// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/gateway"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/usecase"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Updates the README stats block",
	Long: `Fetches the plugin's install and fork counts from the TRMNL
marketplace, the repository metrics from GitHub, and rewrites the
marker-delimited stats block of the README in place. Every run also
appends a snapshot to the stats history.

With --check the README is only linted against the stats block
contract. With --summary the recorded history is aggregated instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		dataDir, _ := cmd.Flags().GetString("data-dir")
		readmePath, _ := cmd.Flags().GetString("readme")
		st := store.New(dataDir)

		check, _ := cmd.Flags().GetBool("check")
		summary, _ := cmd.Flags().GetBool("summary")

		if check {
			updater := usecase.NewStatsUpdater(nil, nil, st, logger)
			violations, err := updater.Check(readmePath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to check README: %v\n", err)
				os.Exit(1)
			}
			if len(violations) > 0 {
				for _, v := range violations {
					fmt.Fprintf(os.Stderr, "README: %s\n", v)
				}
				os.Exit(1)
			}
			fmt.Println("README stats block is well-formed.")
			return
		}

		if summary {
			updater := usecase.NewStatsUpdater(nil, nil, st, logger)
			result, err := updater.Summarize()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to summarize stats history: %v\n", err)
				os.Exit(1)
			}
			printJSON(result)
			return
		}

		recipeID, _ := cmd.Flags().GetString("recipe")
		if recipeID == "" {
			fmt.Fprintln(os.Stderr, "Error: --recipe is required for an update.")
			os.Exit(1)
		}
		repoFlag, _ := cmd.Flags().GetString("repo")
		owner, repo, err := splitRepo(repoFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --repo value: %v\n", err)
			os.Exit(1)
		}

		trmnlBaseURL, _ := cmd.Flags().GetString("trmnl-base-url")
		recipes := gateway.NewTRMNLGateway(trmnlBaseURL, logger)

		var repos gateway.RepoFetcher
		if owner != "" {
			repos, err = gateway.NewGitHubGateway(os.Getenv("GITHUB_TOKEN"), logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
				os.Exit(1)
			}
		}

		updater := usecase.NewStatsUpdater(recipes, repos, st, logger)
		pluginStats, metrics, err := updater.Update(ctx, recipeID, owner, repo, readmePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to update stats: %v\n", err)
			os.Exit(1)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			printJSON(struct {
				Stats *domain.PluginStats `json:"stats"`
				Repo  *domain.RepoMetrics `json:"repo,omitempty"`
			}{pluginStats, metrics})
			return
		}
		fmt.Printf("Updated %s: %d installs, %d forks\n", readmePath, pluginStats.Installs, pluginStats.Forks)
		if metrics != nil {
			fmt.Printf("Repository %s: %d forks, %d stars, %d watchers\n",
				metrics.FullName, metrics.Forks, metrics.Stars, metrics.Watchers)
		}
	},
}

// splitRepo parses an "owner/name" value. An empty value disables the
// GitHub fetch entirely.
func splitRepo(s string) (owner, name string, err error) {
	if s == "" {
		return "", "", nil
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected owner/name, got %q", s)
	}
	return parts[0], parts[1], nil
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("recipe", "", "TRMNL marketplace recipe ID")
	statsCmd.Flags().String("repo", "ExcuseMi/trmnl-tv-guide.plugin", "GitHub repository as owner/name (empty to skip)")
	statsCmd.Flags().String("readme", "README.md", "Path of the README to update")
	statsCmd.Flags().String("trmnl-base-url", "", "Override the TRMNL marketplace base URL")
	statsCmd.Flags().Bool("check", false, "Lint the README stats block instead of updating it")
	statsCmd.Flags().Bool("summary", false, "Print aggregates of the recorded stats history")
	statsCmd.Flags().Bool("json", false, "Print the update result as JSON")
}
