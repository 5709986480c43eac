package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/runner/ranks"
)

func addRanks(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ranks",
		Short: "Show the hunter rank ladder",
		Example: `
questlog ranks
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := ranks.Ranks{JSON: output.JSON, Quests: svc.Quests}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
