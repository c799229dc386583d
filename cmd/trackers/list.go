// Package trackers implements the tracker inspection commands.
package trackers

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/AImitSK/skamp-monitoring/cmd/common"
	"github.com/AImitSK/skamp-monitoring/internal/domain"
)

const defaultListLimit = 50

// Command returns the trackers command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trackers",
		Short: "Inspect monitoring trackers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newListCommand())

	return cmd
}

// newListCommand creates the list subcommand.
func newListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trackers in a table",
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

			trackers, err := app.Trackers.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list trackers: %w", err)
			}

			if len(trackers) == 0 {
				deps.Logger.Info("no trackers found")
				return nil
			}

			renderTable(trackers)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultListLimit, "maximum number of trackers to show")

	return cmd
}

// renderTable formats and displays the trackers in a table.
func renderTable(trackers []*domain.Tracker) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Org", "Campaign", "Active", "End Date", "Last Run", "Found", "Imported", "Manual", "Spam"})

	for _, trk := range trackers {
		lastRun := "never"
		if trk.LastRunAt != nil {
			lastRun = trk.LastRunAt.Format("2006-01-02 15:04")
		}

		t.AppendRow(table.Row{
			trk.ID,
			trk.OrgID,
			trk.CampaignID,
			trk.IsActive,
			trk.EndDate.Format("2006-01-02"),
			lastRun,
			trk.TotalFound,
			trk.TotalAutoImported,
			trk.TotalManuallyAdded,
			trk.TotalSpamMarked,
		})
	}

	t.Render()
}
