package options

import (
	"github.com/spf13/cobra"
)

// StoreOptions override where data is kept for one invocation.
type StoreOptions struct {
	Memory bool
}

func AddStoreArgs(cmd *cobra.Command, o *StoreOptions) {
	cmd.PersistentFlags().BoolVar(&o.Memory, "memory", false,
		"Keep everything in memory for this run only.")
}
