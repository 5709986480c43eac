package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/commands/options"
	"tableflip.dev/questlog/pkg/runner/export"
)

func addExport(topLevel *cobra.Command) {
	eo := &options.ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active hunter's profile, quests and rank",
		Example: `
questlog export
questlog export -o json -f hunter.json
`,
		Args: cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			return eo.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := export.Export{
					Format:   eo.Format,
					File:     eo.File,
					Exporter: svc,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	options.AddExportArgs(cmd, eo)
	topLevel.AddCommand(cmd)
}
