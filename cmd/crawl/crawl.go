// Package crawl implements the one-shot pass command.
package crawl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AImitSK/skamp-monitoring/cmd/common"
	"github.com/AImitSK/skamp-monitoring/internal/orchestrator"
)

// Command returns the crawl command: run a single orchestration pass
// and exit.
func Command() *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one monitoring pass and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			app, err := common.BuildApp(deps)
			if err != nil {
				return fmt.Errorf("failed to build application: %w", err)
			}
			defer app.Close()

			result, err := app.Orchestrator.RunPass(cmd.Context(), orchestrator.Options{OrgID: orgID})
			if err != nil {
				return fmt.Errorf("pass failed: %w", err)
			}

			if result.Skipped != "" {
				deps.Logger.Info("pass skipped", "reason", result.Skipped)
				return nil
			}

			deps.Logger.Info("pass finished",
				"trackers", result.TrackersProcessed,
				"processed", result.CandidatesProcessed,
				"imported", result.CandidatesImported,
				"failed", result.CandidatesFailed,
			)

			for _, msg := range result.Errors {
				deps.Logger.Warn("pass error", "error", msg)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "limit the pass to one organization (bypasses pause)")

	return cmd
}
