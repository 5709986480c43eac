package info

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/questlog/pkg/config"
	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/session"
)

// Info reports where data lives and the state of this device's session.
type Info struct {
	Config    *config.Config
	Store     docstore.Store
	Session   session.Store
	Bootstrap *session.Bootstrap
	Out       io.Writer
}

func (n *Info) Do(ctx context.Context) error {
	if n.Config == nil {
		return fmt.Errorf("failed to load configuration")
	}
	w := n.Out
	if w == nil {
		w = color.Output
	}

	tbl := uitable.New()
	tbl.Separator = "  "

	if override := os.Getenv(config.PathEnv); override != "" {
		tbl.AddRow(config.PathEnv, override)
	} else {
		tbl.AddRow(config.PathEnv, "not set")
	}
	file := n.Config.File
	if file == "" {
		file = "none, using defaults"
	}
	tbl.AddRow("Config file", file)
	tbl.AddRow("Store", n.Config.StoreDriver)
	if n.Config.StoreDriver == config.DriverSQLite {
		tbl.AddRow("Store path", n.Config.StorePath)
	}
	tbl.AddRow("Session path", n.Config.SessionPath)

	reachable := "yes"
	if n.Store != nil {
		if err := n.Store.Ping(ctx); err != nil {
			reachable = "no: " + err.Error()
		}
	}
	tbl.AddRow("Store reachable", reachable)

	if n.Bootstrap != nil {
		device := "not signed in"
		if sub := n.Bootstrap.Subject(); sub != "" {
			device = sub
			if _, err := n.Bootstrap.Verify(n.Bootstrap.Credential()); err != nil {
				device += " (credential invalid)"
			}
		}
		tbl.AddRow("Device", device)
	}

	active := "nobody, run questlog login"
	if n.Session != nil {
		key, ok, err := n.Session.Load()
		if err != nil {
			return err
		}
		if ok {
			active = key
		}
	}
	tbl.AddRow("Logged in as", active)

	_, _ = fmt.Fprintln(w, tbl)
	return nil
}
