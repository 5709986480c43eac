package printers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/questlog/pkg/account"
	"tableflip.dev/questlog/pkg/progress"
	"tableflip.dev/questlog/pkg/quest"
)

const (
	// quest ids are 21 character nanoids.
	idWidth = 21

	dateLayout = "2006-01-02 15:04"
)

var spacing = strings.Repeat(" ", idWidth+2)

// PrettyPrint renders quests and profiles for a terminal.
type PrettyPrint struct {
	Out    io.Writer
	ShowID bool
	// Now decides due flags. Defaults to time.Now.
	Now func() time.Time
}

// Writer is where output goes: Out, or color.Output when unset.
func (pp *PrettyPrint) Writer() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) now() time.Time {
	if pp.Now == nil {
		return time.Now()
	}
	return pp.Now()
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.Writer(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)

	if pp.ShowID {
		_, _ = t.Fprint(pp.Writer(), spacing)
	}
	_, _ = t.Fprintln(pp.Writer(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	if pp.ShowID {
		_, _ = t.Fprint(pp.Writer(), spacing)
	}
	_, _ = t.Fprint(pp.Writer(), title)
	_, _ = c.Fprintf(pp.Writer(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.Writer(), " quest")
	default:
		_, _ = c.Fprintln(pp.Writer(), " quests")
	}
}

// Quests prints one line per quest, in the order given.
func (pp *PrettyPrint) Quests(quests ...quest.Quest) {
	w := pp.Writer()
	if len(quests) == 0 {
		f := color.New(color.Faint, color.Italic)
		if pp.ShowID {
			_, _ = f.Fprint(w, spacing)
		}
		_, _ = f.Fprint(w, " none\n\n")
		return
	}

	t := color.New()
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	done := color.New(color.Faint, color.CrossedOut)
	stars := color.New(color.FgYellow)
	near := color.New(color.FgYellow, color.Bold)
	overdue := color.New(color.FgRed, color.Bold)

	now := pp.now()
	for _, q := range quests {
		if pp.ShowID {
			_, _ = y.Fprint(w, q.ID)
			if pad := len(spacing) - len(q.ID); pad > 0 {
				_, _ = y.Fprint(w, strings.Repeat(" ", pad))
			} else {
				_, _ = y.Fprint(w, " ")
			}
		}
		box := "☐"
		name := t
		if q.Completed {
			box = "☑"
			name = done
		}
		_, _ = t.Fprintf(w, "%s ", box)
		_, _ = stars.Fprintf(w, "%-9s ", strings.Repeat("★", q.Stars()))
		_, _ = name.Fprint(w, q.Name)

		switch q.DueStatus(now) {
		case quest.DueOverdue:
			_, _ = overdue.Fprintf(w, "  overdue since %s", q.DueAt.Local().Format(dateLayout))
		case quest.DueNear:
			_, _ = near.Fprintf(w, "  due %s", q.DueAt.Local().Format(dateLayout))
		case quest.DueNone:
			if q.DueAt != nil && !q.DueAt.IsZero() && !q.Completed {
				_, _ = t.Fprintf(w, "  due %s", q.DueAt.Local().Format(dateLayout))
			}
		}
		_, _ = t.Fprintln(w, "")
		if q.Details != "" {
			if pp.ShowID {
				_, _ = t.Fprint(w, spacing)
			}
			_, _ = color.New(color.Faint).Fprintf(w, "    %s\n", q.Details)
		}
	}
	_, _ = t.Fprintln(w, "")
}

// Hunter prints an account header with its rank.
func (pp *PrettyPrint) Hunter(key string, p *account.Profile, snap progress.Snapshot) {
	w := pp.Writer()
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	if p == nil {
		_, _ = bold.Fprintf(w, "%s", key)
		_, _ = faint.Fprintln(w, " (no profile, the account was deleted)")
		return
	}
	_, _ = bold.Fprint(w, p.DisplayName)
	_, _ = faint.Fprintf(w, " @%s\n", key)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("Avatar", p.Avatar())
	tbl.AddRow("Rank", fmt.Sprintf("%d · %s", snap.Rank, snap.RankTitle))
	tbl.AddRow("Points", snap.Points)
	tbl.AddRow("Progress", Bar(snap.Progress, progress.PointsPerRank, 20))
	if !p.CreatedAt.IsZero() {
		tbl.AddRow("Since", p.CreatedAt.Local().Format(dateLayout))
	}
	_, _ = fmt.Fprintln(w, tbl)
}

// Bar draws value out of total as a fixed-width bar.
func Bar(value, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	filled := value * width / total
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat("#", filled),
		strings.Repeat("-", width-filled),
		value, total)
}

// Ranks prints every rank band and marks the one rank falls in.
func (pp *PrettyPrint) Ranks(rank int) {
	bold := color.New(color.Bold)
	cur := color.New(color.FgGreen, color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("  Ranks"), bold.Sprint("Points"), bold.Sprint("Title"))
	for _, t := range progress.Tiers() {
		ranks := fmt.Sprintf("%d+", t.From)
		if t.Below > 0 && t.Below-1 > t.From {
			ranks = fmt.Sprintf("%d-%d", t.From, t.Below-1)
		} else if t.Below > 0 {
			ranks = fmt.Sprintf("%d", t.From)
		}
		points := fmt.Sprintf("%d+", (t.From-1)*progress.PointsPerRank)
		title := t.Title
		if rank >= t.From && (t.Below == 0 || rank < t.Below) {
			ranks = cur.Sprint("> " + ranks)
			title = cur.Sprint(title)
		}
		tbl.AddRow(ranks, points, title)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.Writer(), tbl)
}
