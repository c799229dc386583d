// Package cmd implements the command-line interface for the monitoring
// service.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AImitSK/skamp-monitoring/cmd/crawl"
	"github.com/AImitSK/skamp-monitoring/cmd/serve"
	"github.com/AImitSK/skamp-monitoring/cmd/trackers"
	"github.com/AImitSK/skamp-monitoring/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "skamp-monitoring",
	Short: "Press-clipping monitoring and matching engine",
	Long:  `A press-clipping monitoring service that polls news channels, deduplicates coverage, and auto-imports matching clippings.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to viper.
	_ = godotenv.Load()

	if err := config.InitializeViper(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "skamp-monitoring version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(serve.Command())
	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(trackers.Command())
}
