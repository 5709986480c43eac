package commands

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/commands/options"
	"tableflip.dev/questlog/pkg/runner/quests"
)

func addAdd(topLevel *cobra.Command) {
	qo := &options.QuestOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "add <quest name>",
		Aliases: []string{"post", "new"},
		Short:   "Post a new quest",
		Example: `
questlog add Hunt a Rathalos --stars 6 --icon Rathalos
questlog add Gather herbs --details "ten of them" --due 3d
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a quest name")
			}
			qo.Name = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			fields, err := qo.Fields(time.Now())
			if err != nil {
				return output.HandleError(err)
			}
			err = withService(cmd.Context(), func(svc *app.Service) error {
				s := quests.Add{
					Fields:  fields,
					ShowID:  io.ShowID,
					JSON:    output.JSON,
					Quests:  svc.Quests,
					Catalog: svc.Icons,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	options.AddQuestArgs(cmd, qo)
	options.AddShowIDArgs(cmd, io)
	_ = cmd.RegisterFlagCompletionFunc("icon", iconCompletions)
	topLevel.AddCommand(cmd)
}

func addEdit(topLevel *cobra.Command) {
	qo := &options.QuestOptions{}

	cmd := &cobra.Command{
		Use:   "edit <quest id>",
		Short: "Change a quest",
		Example: `
questlog edit V1StGXR8_Z5jdHi6B-myT --stars 8
questlog edit V1StGXR8_Z5jdHi6B-myT --name "Hunt a Rathian" --no-due
`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: questCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			patch, err := qo.Patch(cmd, time.Now())
			if err != nil {
				return output.HandleError(err)
			}
			err = withService(cmd.Context(), func(svc *app.Service) error {
				s := quests.Edit{
					ID:      args[0],
					Patch:   patch,
					Quests:  svc.Quests,
					Catalog: svc.Icons,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	options.AddEditArgs(cmd, qo)
	_ = cmd.RegisterFlagCompletionFunc("icon", iconCompletions)
	topLevel.AddCommand(cmd)
}

func addDone(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "done <quest id>",
		Aliases: []string{"complete", "completed", "undo"},
		Short:   "Toggle whether a quest is completed",
		Example: `
questlog done V1StGXR8_Z5jdHi6B-myT
`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: questCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := quests.Complete{
					ID:     args[0],
					JSON:   output.JSON,
					Quests: svc.Quests,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addRemove(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "remove <quest id>",
		Aliases: []string{"rm", "delete"},
		Short:   "Remove a quest",
		Example: `
questlog remove V1StGXR8_Z5jdHi6B-myT
`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: questCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := quests.Remove{ID: args[0], Quests: svc.Quests}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command) {
	fo := &options.FilterOptions{}
	io := &options.IDOptions{}
	var due bool

	cmd := &cobra.Command{
		Use:     "list [search]",
		Aliases: []string{"ls", "get"},
		Short:   "List quests, newest first",
		Example: `
questlog list
questlog list rathalos --tab active
questlog list --due -k
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if len(args) > 0 {
				fo.Search = strings.Join(args, " ")
			}
			filter, err := fo.Filter()
			if err != nil {
				return output.HandleError(err)
			}
			err = withService(cmd.Context(), func(svc *app.Service) error {
				s := quests.List{
					Filter:  filter,
					DueOnly: due,
					ShowID:  io.ShowID,
					JSON:    output.JSON,
					Quests:  svc.Quests,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	options.AddFilterArgs(cmd, fo)
	options.AddShowIDArgs(cmd, io)
	cmd.Flags().BoolVar(&due, "due", false, "Only quests that are overdue or due within a day.")
	_ = cmd.RegisterFlagCompletionFunc("tab", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return options.TabCompletions(), cobra.ShellCompDirectiveNoFileComp
	})
	topLevel.AddCommand(cmd)
}
