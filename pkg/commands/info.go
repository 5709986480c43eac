package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/runner/info"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about where quests are stored and who is logged in.",
		Example: `
questlog info
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := info.Info{
					Config:    svc.Config,
					Store:     svc.Store,
					Session:   svc.Session,
					Bootstrap: svc.Bootstrap,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
