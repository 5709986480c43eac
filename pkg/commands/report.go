package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/runner/report"
)

func addReport(topLevel *cobra.Command) {
	var last string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recently completed quests grouped by difficulty",
		Long: `Report lists the quests completed within the time window, hardest first.

Examples:
  questlog report
  questlog report --last 3d
  questlog report --last 1w2d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := report.Report{
					Last:     last,
					JSON:     output.JSON,
					Reporter: svc,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	cmd.Flags().StringVar(&last, "last", report.DefaultWindow, "time window to include (for example 3d, 1w)")
	topLevel.AddCommand(cmd)
}
