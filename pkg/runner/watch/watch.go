// Package watch follows the active account live.
package watch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/printers"
	"tableflip.dev/questlog/pkg/progress"
	"tableflip.dev/questlog/pkg/realtime"
	"tableflip.dev/questlog/pkg/session"
)

// Watch prints every snapshot of the active account until ctx ends.
type Watch struct {
	ShowID bool
	JSON   bool
	Out    io.Writer

	Session session.Store
	Channel *realtime.Channel
}

// event is one line of --json output.
type event struct {
	Type         string                    `json:"type"`
	Profile      *realtime.ProfileSnapshot `json:"profile,omitempty"`
	Quests       *realtime.QuestSnapshot   `json:"quests,omitempty"`
	Connectivity string                    `json:"connectivity,omitempty"`
	At           time.Time                 `json:"at"`
}

func (n *Watch) Do(ctx context.Context) error {
	key, ok, err := n.Session.Load()
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrNoAccount
	}

	f := realtime.NewFollower(n.Channel)
	defer f.Close()
	sub, err := f.Follow(ctx, key)
	if err != nil {
		return err
	}

	w := n.Out
	if w == nil {
		w = color.Output
	}
	pp := printers.PrettyPrint{Out: w, ShowID: n.ShowID}
	warn := color.New(color.FgYellow, color.Bold)

	profiles, quests, conn := sub.Profiles(), sub.Quests(), sub.Connectivity()
	for {
		select {
		case <-sub.Done():
			return nil
		case p, ok := <-profiles:
			if !ok {
				return nil
			}
			if n.JSON {
				if err := printers.JSON(w, event{Type: "profile", Profile: &p, At: time.Now()}); err != nil {
					return err
				}
				continue
			}
			if p.Profile == nil {
				_, _ = warn.Fprintf(w, "Account %s no longer exists.\n", key)
				continue
			}
			pp.Title(fmt.Sprintf("%s @%s", p.Profile.DisplayName, key))
		case q, ok := <-quests:
			if !ok {
				return nil
			}
			if n.JSON {
				if err := printers.JSON(w, event{Type: "quests", Quests: &q, At: time.Now()}); err != nil {
					return err
				}
				continue
			}
			_, _ = fmt.Fprintf(w, "Rank %d · %s  %s\n", q.Progress.Rank, q.Progress.RankTitle,
				printers.Bar(q.Progress.Progress, progress.PointsPerRank, 20))
			pp.TitleWithCount("Quests", len(q.Quests))
			pp.Quests(q.Quests...)
		case c, ok := <-conn:
			if !ok {
				return nil
			}
			if n.JSON {
				if err := printers.JSON(w, event{Type: "connectivity", Connectivity: c.String(), At: time.Now()}); err != nil {
					return err
				}
				continue
			}
			if c == realtime.Degraded {
				_, _ = warn.Fprintln(w, "Connection lost, showing the last known state.")
			} else {
				_, _ = fmt.Fprintln(w, "Connection restored.")
			}
		}
	}
}
