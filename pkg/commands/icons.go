package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/runner/icons"
)

func addIcons(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "icons",
		Short: "List the monster icons for quests and avatars",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := icons.Icons{JSON: output.JSON, Catalog: svc.Icons}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
