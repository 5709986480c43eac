package options

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/quest"
)

// FilterOptions narrow the quest list.
type FilterOptions struct {
	Search string
	Tab    string
}

func AddFilterArgs(cmd *cobra.Command, o *FilterOptions) {
	cmd.Flags().StringVarP(&o.Search, "search", "q", "",
		"Only quests whose name contains this text.")
	cmd.Flags().StringVarP(&o.Tab, "tab", "t", string(quest.TabAll),
		"One of all, active or completed.")
}

func (o *FilterOptions) Filter() (quest.Filter, error) {
	tab := quest.Tab(strings.ToLower(strings.TrimSpace(o.Tab)))
	if tab == "" {
		tab = quest.TabAll
	}
	for _, t := range quest.Tabs() {
		if t == tab {
			return quest.Filter{Search: o.Search, Tab: tab}, nil
		}
	}
	return quest.Filter{}, fmt.Errorf("unknown tab %q", o.Tab)
}

// TabCompletions lists the values --tab accepts.
func TabCompletions() []string {
	tabs := quest.Tabs()
	out := make([]string, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, string(t))
	}
	return out
}
