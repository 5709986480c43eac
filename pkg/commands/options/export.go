package options

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ExportOptions
type ExportOptions struct {
	Format string
	File   string
}

func AddExportArgs(cmd *cobra.Command, o *ExportOptions) {
	cmd.Flags().StringVarP(&o.Format, "output", "o", "yaml",
		"Output format. One of 'yaml' or 'json'.")
	cmd.Flags().StringVarP(&o.File, "file", "f", "",
		"Write to this file instead of stdout.")
}

func (o *ExportOptions) Validate() error {
	switch strings.ToLower(o.Format) {
	case "yaml", "json":
		return nil
	}
	return fmt.Errorf("unknown output format %q", o.Format)
}
