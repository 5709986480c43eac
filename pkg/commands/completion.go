package commands

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/app"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(questlog completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(questlog completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

func completionContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, 3*time.Second)
}

func questCompletions(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx, cancel := completionContext(cmd)
	defer cancel()

	var ids []string
	_ = withService(ctx, func(svc *app.Service) error {
		all, err := svc.Quests.List(ctx)
		if err != nil {
			return err
		}
		for _, q := range all {
			ids = append(ids, q.ID+"\t"+q.Name)
		}
		return nil
	})
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func iconCompletions(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	ctx, cancel := completionContext(cmd)
	defer cancel()

	var names []string
	_ = withService(ctx, func(svc *app.Service) error {
		for _, i := range svc.Icons.List(ctx) {
			names = append(names, i.FileName+"\t"+i.DisplayName)
		}
		return nil
	})
	return names, cobra.ShellCompDirectiveNoFileComp
}
