package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/questlog/pkg/commands/options"
)

var (
	output = &options.OutputOptions{}
	so     = &options.StoreOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "questlog",
		Short: base.Wrap80("A hunters' guild quest log on the command line. Claim a hunter name, post quests, complete them and climb the ranks."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	options.AddOutputArg(cmd, output)
	options.AddStoreArgs(cmd, so)
	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addLogin(topLevel)
	addLookup(topLevel)
	addWhoAmI(topLevel)
	addLogout(topLevel)
	addAvatar(topLevel)
	addReset(topLevel)
	addDeleteAccount(topLevel)

	addAdd(topLevel)
	addEdit(topLevel)
	addDone(topLevel)
	addRemove(topLevel)
	addList(topLevel)
	addWatch(topLevel)
	addReport(topLevel)
	addExport(topLevel)

	addRanks(topLevel)
	addIcons(topLevel)
	addInfo(topLevel)
	addCompletions(topLevel)
	addVersion(topLevel)
}
