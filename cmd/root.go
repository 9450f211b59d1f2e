// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trmnl-tv-guide",
	Short: "Maintenance tooling for the TRMNL TV Guide plugin.",
	Long: `trmnl-tv-guide maintains the data behind the TRMNL TV Guide plugin:
it refreshes the TV-Plan channel catalog, generates the plugin's
options.yml, captures stub fixtures, and keeps the README stats block
up to date.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Flags shared by all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("data-dir", "data", "Directory holding the cached plugin data")
}

// newLogger builds the command logger. Logs are discarded unless the
// persistent --verbose flag is set, in which case they go to stderr.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// flagOrEnv returns the flag value, falling back to the environment
// variable when the flag is unset.
func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return os.Getenv(env)
}
