// Package export writes everything stored for the active account.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/printers"
)

// Exporter reads the active account.
type Exporter interface {
	Export(ctx context.Context) (app.Export, error)
}

type Export struct {
	Format string
	// File, when set, is written instead of Out.
	File string
	Out  io.Writer

	Exporter Exporter
}

func (n *Export) Do(ctx context.Context) (err error) {
	data, err := n.Exporter.Export(ctx)
	if err != nil {
		return err
	}

	w := n.Out
	if w == nil {
		w = color.Output
	}
	if n.File != "" {
		f, err := os.OpenFile(n.File, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	switch strings.ToLower(n.Format) {
	case "json":
		return printers.JSON(w, data)
	case "", "yaml":
		return printers.YAML(w, data)
	default:
		return fmt.Errorf("unknown output format %q", n.Format)
	}
}
