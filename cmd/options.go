// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/usecase"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Generates the plugin's options.yml from the cached catalog",
	Long: `Joins the cached countries and channels into the TRMNL custom field
list and writes it to options.yml in the data directory. Requires the
channels command to have populated the cache.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)
		dataDir, _ := cmd.Flags().GetString("data-dir")
		st := store.New(dataDir)

		result, err := usecase.NewOptionsBuilder(st, logger).Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build options: %v\n", err)
			os.Exit(1)
		}

		data, err := yaml.Marshal(result.Fields)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal options to YAML: %v\n", err)
			os.Exit(1)
		}
		path, err := st.WriteOptions(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write options: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Wrote %s\n", path)
		fmt.Printf("Countries: %d (%d with channels), channels: %d\n",
			result.Countries, result.Covered, result.Channels)

		// A short sample makes it easy to eyeball the label format.
		channelField := result.Fields[2]
		for i, option := range channelField.Options {
			if i == 5 {
				break
			}
			fmt.Printf("  %d. %s (%s)\n", i+1, option.Label, option.Value)
		}
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}
