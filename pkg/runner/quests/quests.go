// Package quests provides the runners for the active account's quest log.
package quests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/icons"
	"tableflip.dev/questlog/pkg/printers"
	"tableflip.dev/questlog/pkg/progress"
	"tableflip.dev/questlog/pkg/quest"
)

func out(w io.Writer) io.Writer {
	if w == nil {
		return color.Output
	}
	return w
}

// resolveIcon maps a file or display name onto a catalog file name.
func resolveIcon(ctx context.Context, c *icons.Catalog, name string) (string, error) {
	if name == "" || c == nil {
		return name, nil
	}
	icon, ok := c.Lookup(ctx, name)
	if !ok {
		return "", errs.Invalid("icon", "unknown icon %q", name)
	}
	return icon.FileName, nil
}

// Add posts a new quest and prints the log.
type Add struct {
	Fields quest.Fields
	ShowID bool
	JSON   bool
	Out    io.Writer

	Quests  *quest.Manager
	Catalog *icons.Catalog
}

func (n *Add) Do(ctx context.Context) error {
	icon, err := resolveIcon(ctx, n.Catalog, n.Fields.IconID)
	if err != nil {
		return err
	}
	n.Fields.IconID = icon

	q, err := n.Quests.Create(ctx, n.Fields)
	if err != nil {
		return err
	}
	if n.JSON {
		return printers.JSON(out(n.Out), q)
	}
	_, _ = fmt.Fprintf(out(n.Out), "Posted %q (%s).\n\n", q.Name, q.ID)
	return n.printLog(ctx)
}

func (n *Add) printLog(ctx context.Context) error {
	l := List{ShowID: n.ShowID, Out: n.Out, Quests: n.Quests}
	return l.Do(ctx)
}

// Edit changes fields of one quest.
type Edit struct {
	ID    string
	Patch quest.Patch
	Out   io.Writer

	Quests  *quest.Manager
	Catalog *icons.Catalog
}

func (n *Edit) Do(ctx context.Context) error {
	if n.Patch.Empty() {
		return errs.Invalid("quest", "nothing to change")
	}
	if n.Patch.IconID != nil {
		icon, err := resolveIcon(ctx, n.Catalog, *n.Patch.IconID)
		if err != nil {
			return err
		}
		n.Patch.IconID = &icon
	}
	err := n.Quests.Update(ctx, n.ID, n.Patch)
	if errors.Is(err, errs.ErrNotFound) {
		_, _ = fmt.Fprintf(out(n.Out), "No quest %s, nothing to do.\n", n.ID)
		return nil
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out(n.Out), "Updated %s.\n", n.ID)
	return nil
}

// Complete toggles the completion of a quest.
type Complete struct {
	ID     string
	JSON   bool
	Out    io.Writer
	Quests *quest.Manager
}

func (n *Complete) Do(ctx context.Context) error {
	q, err := n.Quests.ToggleCompletion(ctx, n.ID)
	if errors.Is(err, errs.ErrNotFound) {
		_, _ = fmt.Fprintf(out(n.Out), "No quest %s, nothing to do.\n", n.ID)
		return nil
	}
	if err != nil {
		return err
	}
	if n.JSON {
		return printers.JSON(out(n.Out), q)
	}
	if q.Completed {
		_, _ = fmt.Fprintf(out(n.Out), "Completed %q, +%d points.\n", q.Name, q.Stars()*progress.PointsPerStar)
	} else {
		_, _ = fmt.Fprintf(out(n.Out), "Reopened %q.\n", q.Name)
	}
	return nil
}

// Remove deletes a quest.
type Remove struct {
	ID     string
	Out    io.Writer
	Quests *quest.Manager
}

func (n *Remove) Do(ctx context.Context) error {
	if err := n.Quests.Delete(ctx, n.ID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out(n.Out), "Removed %s.\n", n.ID)
	return nil
}

// List prints the quest log, newest first.
type List struct {
	Filter quest.Filter
	// DueOnly keeps quests that are overdue or due soon.
	DueOnly bool
	ShowID  bool
	JSON    bool
	Out     io.Writer
	Now     func() time.Time

	Quests *quest.Manager
}

func (n *List) Do(ctx context.Context) error {
	if n.Quests == nil {
		return errors.New("can not list, no quest manager")
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}

	all, err := n.Quests.List(ctx)
	if err != nil {
		return err
	}
	shown := n.Filter.Apply(all)
	if n.DueOnly {
		due := shown[:0]
		for _, q := range shown {
			if q.DueStatus(now()) != quest.DueNone {
				due = append(due, q)
			}
		}
		shown = due
	}

	if n.JSON {
		return printers.JSON(out(n.Out), struct {
			Quests   []quest.Quest     `json:"quests"`
			Progress progress.Snapshot `json:"progress"`
		}{Quests: shown, Progress: progress.Compute(all)})
	}

	pp := printers.PrettyPrint{Out: n.Out, ShowID: n.ShowID, Now: now}
	title := "Quests"
	if n.Filter.Tab != "" && n.Filter.Tab != quest.TabAll {
		title = strings.ToUpper(string(n.Filter.Tab[:1])) + string(n.Filter.Tab[1:]) + " quests"
	}
	pp.TitleWithCount(title, len(shown))
	pp.Quests(shown...)
	return nil
}
