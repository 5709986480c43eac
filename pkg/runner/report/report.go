// Package report prints the quests completed in a recent window.
package report

import (
	"context"
	"io"
	"time"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/printers"
	"tableflip.dev/questlog/pkg/timeutil"
)

// DefaultWindow is used when no window is given.
const DefaultWindow = "1w"

// Reporter builds a report for a time window.
type Reporter interface {
	Report(ctx context.Context, since, until time.Time) (app.ReportResult, error)
}

type Report struct {
	Last string
	JSON bool
	Out  io.Writer
	Now  func() time.Time

	Reporter Reporter
}

func (n *Report) Do(ctx context.Context) error {
	last := n.Last
	if last == "" {
		last = DefaultWindow
	}
	window, label, err := timeutil.ParseWindow(last)
	if err != nil {
		return err
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	until := now()
	result, err := n.Reporter.Report(ctx, until.Add(-window), until)
	if err != nil {
		return err
	}

	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		return printers.JSON(pp.Writer(), result)
	}
	pp.Report(result, label)
	return nil
}
