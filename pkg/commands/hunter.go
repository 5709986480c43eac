package commands

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/commands/options"
	"tableflip.dev/questlog/pkg/runner/hunter"
	"tableflip.dev/questlog/pkg/runner/lookup"
)

func addLogin(topLevel *cobra.Command) {
	var avatar string

	cmd := &cobra.Command{
		Use:   "login <hunter name>",
		Short: "Log in as a hunter, registering the name if it is free",
		Example: `
questlog login Ash Ketchum
questlog login "Misty" --avatar Nergigante
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a hunter name")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := hunter.Login{
					Name:     strings.Join(args, " "),
					Avatar:   avatar,
					JSON:     output.JSON,
					Resolver: svc.Resolver,
					Catalog:  svc.Icons,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	cmd.Flags().StringVar(&avatar, "avatar", "",
		"Avatar for a new hunter, by icon file or display name.")
	_ = cmd.RegisterFlagCompletionFunc("avatar", iconCompletions)
	topLevel.AddCommand(cmd)
}

func addLookup(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "lookup [hunter name]",
		Short: "Check whether a hunter name is taken",
		Long: `Lookup shows the account a name resolves to without logging in.

Without a name, lines are read from stdin as they are typed and only the
latest one is looked up once typing pauses.`,
		Example: `
questlog lookup Ash Ketchum
questlog lookup
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := lookup.Lookup{
					Name:     strings.Join(args, " "),
					In:       os.Stdin,
					Debounce: svc.Config.PreviewDebounce,
					JSON:     output.JSON,
					Resolver: svc.Resolver,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addWhoAmI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "whoami",
		Aliases: []string{"me", "profile"},
		Short:   "Show the active hunter and their rank",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := hunter.WhoAmI{
					JSON:      output.JSON,
					Lifecycle: svc.Lifecycle,
					Quests:    svc.Quests,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the active hunter on this device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := hunter.Logout{Lifecycle: svc.Lifecycle}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addAvatar(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "avatar <icon>",
		Short: "Change the active hunter's avatar",
		Example: `
questlog avatar Nergigante
questlog avatar Great_Jagras_Icon.webp
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires an icon")
			}
			return nil
		},
		ValidArgsFunction: iconCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := hunter.Avatar{
					Icon:      strings.Join(args, " "),
					Lifecycle: svc.Lifecycle,
					Catalog:   svc.Icons,
				}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addReset(topLevel *cobra.Command) {
	co := &options.ConfirmOptions{}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every quest of the active hunter",
		Long:  "Reset deletes all quests at once. The hunter keeps their name and avatar and starts again at rank 1.",
		Example: `
questlog reset --yes
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := hunter.Reset{Confirmed: co.Yes, Lifecycle: svc.Lifecycle}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	options.AddConfirmArgs(cmd, co)
	topLevel.AddCommand(cmd)
}

func addDeleteAccount(topLevel *cobra.Command) {
	co := &options.ConfirmOptions{}

	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the active hunter and all of their quests",
		Long:  "Delete removes the profile and every quest, then logs out. The name becomes free to register again.",
		Example: `
questlog delete-account --yes
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			err := withService(cmd.Context(), func(svc *app.Service) error {
				s := hunter.Delete{Confirmed: co.Yes, Lifecycle: svc.Lifecycle}
				return s.Do(cmd.Context())
			})
			return output.HandleError(err)
		},
	}

	options.AddConfirmArgs(cmd, co)
	topLevel.AddCommand(cmd)
}
