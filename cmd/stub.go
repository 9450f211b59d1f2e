// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/gateway"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/usecase"
	"github.com/spf13/cobra"
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Captures program schedules as test fixtures",
	Long: `Fetches the TV-Plan schedule of each given channel and stores the raw
payload under the data directory, for use as development fixtures.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		apiToken := flagOrEnv(cmd, "api-token", "TVPLAN_API_KEY")
		if apiToken == "" {
			fmt.Fprintln(os.Stderr, "Error: TV-Plan API token is not set (use --api-token or TVPLAN_API_KEY).")
			os.Exit(1)
		}
		channelIDs := usecase.ParseChannelIDs(flagOrEnv(cmd, "channel-ids", "TEST_CHANNEL_IDS"))
		if len(channelIDs) == 0 {
			fmt.Fprintln(os.Stderr, "Error: no channel IDs given (use --channel-ids or TEST_CHANNEL_IDS).")
			os.Exit(1)
		}

		dataDir, _ := cmd.Flags().GetString("data-dir")
		baseURL, _ := cmd.Flags().GetString("base-url")

		tvplan := gateway.NewTVPlanGateway(baseURL, apiToken, logger)
		stubber := usecase.NewStubber(tvplan, store.New(dataDir), logger)

		result, err := stubber.Capture(ctx, channelIDs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to capture fixtures: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Captured %d of %d channels (%d failed)\n", result.Fetched, result.Total, result.Failed)
	},
}

func init() {
	rootCmd.AddCommand(stubCmd)
	stubCmd.Flags().String("channel-ids", "", "Comma-separated channel IDs (defaults to TEST_CHANNEL_IDS)")
	stubCmd.Flags().String("api-token", "", "TV-Plan API token (defaults to TVPLAN_API_KEY)")
	stubCmd.Flags().String("base-url", "", "Override the TV-Plan API base URL")
}
