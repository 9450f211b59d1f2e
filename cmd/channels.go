// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/gateway"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/usecase"
	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Refreshes the cached TV-Plan channel catalog",
	Long: `Fetches the TV-Plan country list and the channels of every country
into the data directory. Countries without cached channels are fetched
first, then the rest from oldest to newest. A TV-Plan rate limit stops
the run; running the command again later resumes where it left off.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		apiToken := flagOrEnv(cmd, "api-token", "TVPLAN_API_KEY")
		if apiToken == "" {
			fmt.Fprintln(os.Stderr, "Error: TV-Plan API token is not set (use --api-token or TVPLAN_API_KEY).")
			os.Exit(1)
		}

		dataDir, _ := cmd.Flags().GetString("data-dir")
		baseURL, _ := cmd.Flags().GetString("base-url")
		maxAge, _ := cmd.Flags().GetDuration("max-age")
		delay, _ := cmd.Flags().GetDuration("delay")

		tvplan := gateway.NewTVPlanGateway(baseURL, apiToken, logger)
		refresher := usecase.NewRefresher(tvplan, store.New(dataDir), logger, maxAge, delay)

		result, err := refresher.Refresh(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to refresh channels: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Refreshed channels for %d of %d countries (%d failed)\n",
			result.Refreshed, result.Countries, result.Failed)
		if result.RateLimited {
			fmt.Println("Rate limit reached. Run the command again later to continue.")
		}
	},
}

func init() {
	rootCmd.AddCommand(channelsCmd)
	channelsCmd.Flags().String("api-token", "", "TV-Plan API token (defaults to TVPLAN_API_KEY)")
	channelsCmd.Flags().String("base-url", "", "Override the TV-Plan API base URL")
	channelsCmd.Flags().Duration("max-age", usecase.DefaultCountriesMaxAge, "Maximum age of the cached country list")
	channelsCmd.Flags().Duration("delay", 500*time.Millisecond, "Pause between channel requests")
}
