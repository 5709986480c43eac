package printers

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/icons"
)

// Report prints a hunt report. label is the canonical window, e.g. "1w".
func (pp *PrettyPrint) Report(result app.ReportResult, label string) {
	w := pp.Writer()
	since := result.Since.Local().Format(dateLayout)
	until := result.Until.Local().Format(dateLayout)
	_, _ = color.New(color.Bold).Fprintf(w, "Hunt report · last %s", label)
	_, _ = color.New(color.Faint).Fprintf(w, " (%s → %s)\n", since, until)

	if result.Total == 0 {
		_, _ = fmt.Fprintln(w, "  No quests completed in this window.")
		_, _ = fmt.Fprintln(w)
		return
	}

	stars := color.New(color.FgYellow)
	for _, section := range result.Sections {
		_, _ = stars.Fprintf(w, "\n%s", strings.Repeat("★", section.Stars))
		_, _ = color.New(color.Faint).Fprintf(w, " - %d pts\n", section.Points)
		for _, item := range section.Quests {
			_, _ = fmt.Fprintf(w, "  ☑ %s  (completed %s, +%d)\n",
				item.Quest.Name, item.CompletedAt.Local().Format(dateLayout), item.Points)
		}
	}
	_, _ = fmt.Fprintf(w, "\n%d quests, %d points\n\n", result.Total, result.Points)
}

// Icons prints the catalog with the asset URL of each icon.
func (pp *PrettyPrint) Icons(list []icons.Icon, assetURL func(string) string) {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 80
	tbl.AddRow(bold.Sprint("Icon"), bold.Sprint("File"), bold.Sprint("URL"))
	for _, i := range list {
		tbl.AddRow(i.DisplayName, i.FileName, assetURL(i.FileName))
	}
	_, _ = fmt.Fprintln(pp.Writer(), tbl)
}
